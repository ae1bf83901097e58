package service

import (
	"context"
	"strings"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/models"
	"communityboard/internal/pagination"
	"communityboard/internal/repository"
)

type ProfileUpdate struct {
	Username    *string
	DisplayName *string
}

type UserService interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	Me(ctx context.Context, actor access.Actor) (*models.User, error)
	UpdateProfile(ctx context.Context, actor access.Actor, update ProfileUpdate) (*models.User, error)
	ListUsers(ctx context.Context, actor access.Actor, filter repository.UserFilter, p pagination.Params) (pagination.Page[*models.User], error)
	Deactivate(ctx context.Context, actor access.Actor, userID string) error
}

type userService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	now         clock
}

func NewUserService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository) UserService {
	return &userService{userRepo: userRepo, sessionRepo: sessionRepo, now: utcNow}
}

// GetUser returns a public profile; deactivated users are hidden.
func (s *userService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active() {
		return nil, apperr.New(apperr.ErrNotFound, "user not found")
	}
	return user, nil
}

func (s *userService) Me(ctx context.Context, actor access.Actor) (*models.User, error) {
	if actor.IsGuest() {
		return nil, apperr.New(apperr.ErrUnauthorized, "authentication required")
	}
	return s.userRepo.GetUserByID(ctx, actor.ID)
}

func (s *userService) UpdateProfile(ctx context.Context, actor access.Actor, update ProfileUpdate) (*models.User, error) {
	user, err := s.Me(ctx, actor)
	if err != nil {
		return nil, err
	}

	if update.Username != nil {
		user.Username = strings.TrimSpace(*update.Username)
	}
	if update.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*update.DisplayName)
	}
	user.UpdatedAt = s.now()

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, actor access.Actor, filter repository.UserFilter, p pagination.Params) (pagination.Page[*models.User], error) {
	if err := access.Require(actor, access.CapOverride); err != nil {
		return pagination.Page[*models.User]{}, err
	}

	users, total, err := s.userRepo.List(ctx, filter, p)
	if err != nil {
		return pagination.Page[*models.User]{}, err
	}

	return pagination.NewPage(p, total, users), nil
}

// Deactivate marks the user deactivated and revokes every session. Users
// are never physically deleted.
func (s *userService) Deactivate(ctx context.Context, actor access.Actor, userID string) error {
	res := access.Resource{Kind: "user", ID: userID, OwnerID: userID}
	if decision := access.Authorize(actor, res, access.ActionManage); !decision.Allowed {
		if actor.IsGuest() {
			return apperr.New(apperr.ErrUnauthorized, "authentication required")
		}
		return decision.Err(res)
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.Active() {
		return apperr.New(apperr.ErrConflict, "user is already deactivated")
	}

	now := s.now()
	if err := s.userRepo.SetStatus(ctx, userID, models.UserStatusDeactivated, now); err != nil {
		return err
	}

	_, err = s.sessionRepo.RevokeAll(ctx, userID, "", now)
	return err
}
