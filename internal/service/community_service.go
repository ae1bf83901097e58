package service

import (
	"context"
	"regexp"
	"strings"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/lifecycle"
	"communityboard/internal/models"
	"communityboard/internal/pagination"
	"communityboard/internal/repository"
)

var communityName = regexp.MustCompile(`^[a-z0-9_]{3,21}$`)

type CommunityInput struct {
	Name        string
	Title       string
	Description string
	Restricted  bool
}

type CommunityUpdate struct {
	Title       *string
	Description *string
	Restricted  *bool
}

type CommunityService interface {
	Create(ctx context.Context, actor access.Actor, in CommunityInput) (*models.Community, error)
	Get(ctx context.Context, actor access.Actor, communityID string) (*models.Community, error)
	List(ctx context.Context, actor access.Actor, query string, withDeleted bool, p pagination.Params) (pagination.Page[*models.Community], error)
	Update(ctx context.Context, actor access.Actor, communityID string, update CommunityUpdate) (*models.Community, error)
	Delete(ctx context.Context, actor access.Actor, communityID string) error
	Restore(ctx context.Context, actor access.Actor, communityID string) (*models.Community, error)
	Moderators(ctx context.Context, communityID string) ([]*models.CommunityModerator, error)
	AssignModerator(ctx context.Context, actor access.Actor, communityID, userID string) (*models.CommunityModerator, error)
	RemoveModerator(ctx context.Context, actor access.Actor, communityID, userID string) error
}

type communityService struct {
	communityRepo repository.CommunityRepository
	moderatorRepo repository.ModeratorRepository
	userRepo      repository.UserRepository
	recorder      EventRecorder
	now           clock
}

func NewCommunityService(communityRepo repository.CommunityRepository, moderatorRepo repository.ModeratorRepository, userRepo repository.UserRepository, recorder EventRecorder) CommunityService {
	return &communityService{
		communityRepo: communityRepo,
		moderatorRepo: moderatorRepo,
		userRepo:      userRepo,
		recorder:      recorderOrNoop(recorder),
		now:           utcNow,
	}
}

func (s *communityService) Create(ctx context.Context, actor access.Actor, in CommunityInput) (*models.Community, error) {
	if err := access.Require(actor, access.CapCreateCommunity); err != nil {
		return nil, err
	}

	name := strings.ToLower(strings.TrimSpace(in.Name))
	if !communityName.MatchString(name) {
		return nil, apperr.New(apperr.ErrValidation, "name must be 3-21 characters of a-z, 0-9 or underscore")
	}

	community := &models.Community{
		OwnerID:     actor.ID,
		Name:        name,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Restricted:  in.Restricted,
	}

	if err := s.communityRepo.Create(ctx, community); err != nil {
		return nil, err
	}

	return community, nil
}

// Get hides deleted communities from everyone but administrators.
func (s *communityService) Get(ctx context.Context, actor access.Actor, communityID string) (*models.Community, error) {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if lifecycle.Deleted(community) && !actor.IsAdministrator() {
		return nil, apperr.New(apperr.ErrNotFound, "community not found")
	}

	return community, nil
}

func (s *communityService) List(ctx context.Context, actor access.Actor, query string, withDeleted bool, p pagination.Params) (pagination.Page[*models.Community], error) {
	communities, total, err := s.communityRepo.List(ctx, query, withDeleted && actor.IsAdministrator(), p)
	if err != nil {
		return pagination.Page[*models.Community]{}, err
	}

	return pagination.NewPage(p, total, communities), nil
}

func (s *communityService) Update(ctx context.Context, actor access.Actor, communityID string, update CommunityUpdate) (*models.Community, error) {
	community, err := s.live(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if decision := access.Authorize(actor, community.Resource(), access.ActionUpdate); !decision.Allowed {
		return nil, decision.Err(community.Resource())
	}

	if update.Title != nil {
		community.Title = strings.TrimSpace(*update.Title)
	}
	if update.Description != nil {
		community.Description = *update.Description
	}
	if update.Restricted != nil {
		community.Restricted = *update.Restricted
	}

	if err := s.communityRepo.Update(ctx, community); err != nil {
		return nil, err
	}

	return community, nil
}

func (s *communityService) Delete(ctx context.Context, actor access.Actor, communityID string) error {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return err
	}

	decision := access.Authorize(actor, community.Resource(), access.ActionDelete)
	if !decision.Allowed {
		return decision.Err(community.Resource())
	}

	if err := lifecycle.Communities.SoftDelete(community, actor.ID, s.now()); err != nil {
		return err
	}

	if err := s.communityRepo.SoftDelete(ctx, community); err != nil {
		return err
	}

	if decision.Privileged() {
		s.recorder.ModerationAction("community_delete")
	}
	return nil
}

func (s *communityService) Restore(ctx context.Context, actor access.Actor, communityID string) (*models.Community, error) {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if decision := access.Authorize(actor, community.Resource(), access.ActionRestore); !decision.Allowed {
		return nil, decision.Err(community.Resource())
	}

	if err := lifecycle.Communities.Restore(community); err != nil {
		return nil, err
	}

	if err := s.communityRepo.Restore(ctx, communityID, s.now()); err != nil {
		return nil, err
	}

	s.recorder.ModerationAction("community_restore")
	return community, nil
}

func (s *communityService) Moderators(ctx context.Context, communityID string) ([]*models.CommunityModerator, error) {
	if _, err := s.live(ctx, communityID); err != nil {
		return nil, err
	}
	return s.moderatorRepo.ListByCommunity(ctx, communityID)
}

func (s *communityService) AssignModerator(ctx context.Context, actor access.Actor, communityID, userID string) (*models.CommunityModerator, error) {
	community, err := s.live(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if decision := access.Authorize(actor, community.Resource(), access.ActionManage); !decision.Allowed {
		return nil, decision.Err(community.Resource())
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role != access.RoleModerator || !user.Active() {
		return nil, apperr.New(apperr.ErrDomainRule, "only active moderator accounts can be assigned")
	}

	moderator := &models.CommunityModerator{
		CommunityID: communityID,
		UserID:      userID,
		AssignedBy:  actor.ID,
		CreatedAt:   s.now(),
	}

	if err := s.moderatorRepo.Assign(ctx, moderator); err != nil {
		return nil, err
	}

	return moderator, nil
}

func (s *communityService) RemoveModerator(ctx context.Context, actor access.Actor, communityID, userID string) error {
	community, err := s.live(ctx, communityID)
	if err != nil {
		return err
	}

	if decision := access.Authorize(actor, community.Resource(), access.ActionManage); !decision.Allowed {
		return decision.Err(community.Resource())
	}

	return s.moderatorRepo.Remove(ctx, communityID, userID)
}

// live loads a community that has not been deleted.
func (s *communityService) live(ctx context.Context, communityID string) (*models.Community, error) {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if lifecycle.Deleted(community) {
		return nil, apperr.New(apperr.ErrNotFound, "community not found")
	}
	return community, nil
}
