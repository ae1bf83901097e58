package service

import (
	"context"
	"strings"
	"time"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/models"
	"communityboard/internal/pagination"
	"communityboard/internal/repository"
)

var banCategories = map[string]struct{}{
	"spam":       {},
	"harassment": {},
	"off_topic":  {},
	"other":      {},
}

type BanInput struct {
	UserID    string
	Category  string
	Reason    string
	ExpiresAt *time.Time
}

type BanUpdate struct {
	Category  *string
	Reason    *string
	ExpiresAt *time.Time
}

type BanService interface {
	Issue(ctx context.Context, actor access.Actor, communityID string, in BanInput) (*models.Ban, error)
	Get(ctx context.Context, actor access.Actor, banID string) (*models.Ban, error)
	Update(ctx context.Context, actor access.Actor, banID string, update BanUpdate) (*models.Ban, error)
	Lift(ctx context.Context, actor access.Actor, banID string) (*models.Ban, error)
	List(ctx context.Context, actor access.Actor, communityID string, activeOnly bool, p pagination.Params) (pagination.Page[*models.Ban], error)
}

type banService struct {
	banRepo       repository.BanRepository
	communityRepo repository.CommunityRepository
	moderatorRepo repository.ModeratorRepository
	userRepo      repository.UserRepository
	recorder      EventRecorder
	now           clock
}

func NewBanService(banRepo repository.BanRepository, communityRepo repository.CommunityRepository, moderatorRepo repository.ModeratorRepository, userRepo repository.UserRepository, recorder EventRecorder) BanService {
	return &banService{
		banRepo:       banRepo,
		communityRepo: communityRepo,
		moderatorRepo: moderatorRepo,
		userRepo:      userRepo,
		recorder:      recorderOrNoop(recorder),
		now:           utcNow,
	}
}

func (s *banService) Issue(ctx context.Context, actor access.Actor, communityID string, in BanInput) (*models.Ban, error) {
	if _, err := s.moderating(ctx, actor, communityID); err != nil {
		return nil, err
	}

	category := strings.TrimSpace(in.Category)
	if _, ok := banCategories[category]; !ok {
		return nil, apperr.Newf(apperr.ErrValidation, "unknown ban category %q", in.Category)
	}

	now := s.now()
	if in.ExpiresAt != nil && !in.ExpiresAt.After(now) {
		return nil, apperr.New(apperr.ErrValidation, "ban expiry must be in the future")
	}

	if in.UserID == actor.ID {
		return nil, apperr.New(apperr.ErrDomainRule, "you cannot ban yourself")
	}

	target, err := s.userRepo.GetUserByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if target.Role == access.RoleAdministrator {
		return nil, apperr.New(apperr.ErrDomainRule, "administrators cannot be banned")
	}

	ban := &models.Ban{
		CommunityID: communityID,
		UserID:      target.UserID,
		IssuedBy:    actor.ID,
		Category:    category,
		Reason:      strings.TrimSpace(in.Reason),
		ExpiresAt:   in.ExpiresAt,
		CreatedAt:   now,
	}

	if err := s.banRepo.Create(ctx, ban); err != nil {
		return nil, err
	}

	s.recorder.ModerationAction("ban_issue")
	return ban, nil
}

// Get is visible to the community's moderators and to the banned user.
func (s *banService) Get(ctx context.Context, actor access.Actor, banID string) (*models.Ban, error) {
	if actor.IsGuest() {
		return nil, apperr.New(apperr.ErrUnauthorized, "authentication required")
	}

	ban, err := s.banRepo.GetByID(ctx, banID)
	if err != nil {
		return nil, err
	}

	if ban.UserID == actor.ID {
		return ban, nil
	}

	scoped, err := withScope(ctx, s.moderatorRepo, actor, ban.CommunityID)
	if err != nil {
		return nil, err
	}
	if !scoped.IsAdministrator() && !scoped.Moderates(ban.CommunityID) {
		return nil, apperr.New(apperr.ErrNotFound, "ban not found")
	}

	return ban, nil
}

// Update is limited to the issuing moderator and administrators.
func (s *banService) Update(ctx context.Context, actor access.Actor, banID string, update BanUpdate) (*models.Ban, error) {
	ban, err := s.banRepo.GetByID(ctx, banID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !ban.Active(now) {
		return nil, apperr.New(apperr.ErrNotFound, "ban not found")
	}

	if decision := access.Authorize(actor, ban.Resource(), access.ActionUpdate); !decision.Allowed {
		return nil, decision.Err(ban.Resource())
	}

	if update.Category != nil {
		category := strings.TrimSpace(*update.Category)
		if _, ok := banCategories[category]; !ok {
			return nil, apperr.Newf(apperr.ErrValidation, "unknown ban category %q", *update.Category)
		}
		ban.Category = category
	}
	if update.Reason != nil {
		ban.Reason = strings.TrimSpace(*update.Reason)
	}
	if update.ExpiresAt != nil {
		if !update.ExpiresAt.After(now) {
			return nil, apperr.New(apperr.ErrValidation, "ban expiry must be in the future")
		}
		ban.ExpiresAt = update.ExpiresAt
	}

	ban.UpdatedAt = now
	ban.UpdatedBy = &actor.ID

	if err := s.banRepo.Update(ctx, ban); err != nil {
		return nil, err
	}

	return ban, nil
}

func (s *banService) Lift(ctx context.Context, actor access.Actor, banID string) (*models.Ban, error) {
	ban, err := s.banRepo.GetByID(ctx, banID)
	if err != nil {
		return nil, err
	}

	scoped, err := withScope(ctx, s.moderatorRepo, actor, ban.CommunityID)
	if err != nil {
		return nil, err
	}

	if decision := access.Authorize(scoped, ban.Resource(), access.ActionLiftBan); !decision.Allowed {
		return nil, decision.Err(ban.Resource())
	}

	if ban.LiftedAt != nil {
		return nil, apperr.New(apperr.ErrNotFound, "ban already lifted")
	}

	now := s.now()
	ban.LiftedAt = &now
	ban.LiftedBy = &actor.ID
	ban.UpdatedAt = now

	if err := s.banRepo.Lift(ctx, ban); err != nil {
		return nil, err
	}

	s.recorder.ModerationAction("ban_lift")
	return ban, nil
}

func (s *banService) List(ctx context.Context, actor access.Actor, communityID string, activeOnly bool, p pagination.Params) (pagination.Page[*models.Ban], error) {
	if _, err := s.moderating(ctx, actor, communityID); err != nil {
		return pagination.Page[*models.Ban]{}, err
	}

	bans, total, err := s.banRepo.ListByCommunity(ctx, communityID, repository.BanFilter{
		ActiveOnly: activeOnly,
		Now:        s.now(),
	}, p)
	if err != nil {
		return pagination.Page[*models.Ban]{}, err
	}

	return pagination.NewPage(p, total, bans), nil
}

// moderating loads a live community and checks that the actor may
// moderate it. Communities are public, so a failed check is forbidden
// rather than not found.
func (s *banService) moderating(ctx context.Context, actor access.Actor, communityID string) (access.Actor, error) {
	if actor.IsGuest() {
		return actor, apperr.New(apperr.ErrUnauthorized, "authentication required")
	}

	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return actor, err
	}
	if community.DeletedAt != nil {
		return actor, apperr.New(apperr.ErrNotFound, "community not found")
	}

	scoped, err := withScope(ctx, s.moderatorRepo, actor, communityID)
	if err != nil {
		return actor, err
	}
	if !scoped.IsAdministrator() && !scoped.Moderates(communityID) {
		return actor, apperr.New(apperr.ErrForbidden, "not a moderator of this community")
	}

	return scoped, nil
}
