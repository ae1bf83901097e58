package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/config"
	"communityboard/internal/repository"
	"communityboard/internal/storage"

	"github.com/sirupsen/logrus"
)

// EventRecorder receives domain events worth counting.
type EventRecorder interface {
	AuthEvent(event string)
	ModerationAction(action string)
}

type noopRecorder struct{}

func (noopRecorder) AuthEvent(string)        {}
func (noopRecorder) ModerationAction(string) {}

func recorderOrNoop(r EventRecorder) EventRecorder {
	if r == nil {
		return noopRecorder{}
	}
	return r
}

type clock func() time.Time

func utcNow() time.Time {
	return time.Now().UTC()
}

type Service struct {
	Auth         AuthService
	User         UserService
	Community    CommunityService
	Post         PostService
	Comment      CommentService
	Vote         VoteService
	Subscription SubscriptionService
	Ban          BanService
	Tables       TablesService
}

func NewService(rep *repository.Repository, cfg *config.Config, storage storage.Storage, recorder EventRecorder, log logrus.FieldLogger) *Service {
	return &Service{
		Auth:         NewAuthService(rep.User, rep.Session, cfg, recorder),
		User:         NewUserService(rep.User, rep.Session),
		Community:    NewCommunityService(rep.Community, rep.Moderator, rep.User, recorder),
		Post:         NewPostService(rep.Post, rep.Image, rep.Community, rep.Moderator, rep.Ban, storage, recorder, log),
		Comment:      NewCommentService(rep.Comment, rep.Post, rep.Moderator, rep.Ban, recorder),
		Vote:         NewVoteService(rep.Vote, rep.Post, rep.Comment, rep.Ban),
		Subscription: NewSubscriptionService(rep.Subscription, rep.Community),
		Ban:          NewBanService(rep.Ban, rep.Community, rep.Moderator, rep.User, recorder),
		Tables:       NewTablesService(rep.Tables),
	}
}

// withScope attaches communityID to the actor's moderation scopes when the
// actor is an assigned moderator there.
func withScope(ctx context.Context, moderators repository.ModeratorRepository, actor access.Actor, communityID string) (access.Actor, error) {
	if actor.IsGuest() || actor.IsAdministrator() || !actor.Role.Can(access.CapModerate) {
		return actor, nil
	}

	ok, err := moderators.IsModerator(ctx, communityID, actor.ID)
	if err != nil {
		return actor, err
	}
	if ok {
		return actor.WithScope(communityID), nil
	}

	return actor, nil
}

// ensureNotBanned fails with forbidden while the user has an active ban
// in the community.
func ensureNotBanned(ctx context.Context, bans repository.BanRepository, communityID, userID string, now time.Time) error {
	_, err := bans.GetActive(ctx, communityID, userID, now)
	if err == nil {
		return apperr.New(apperr.ErrForbidden, "you are banned from this community")
	}
	if errors.Is(err, apperr.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("failed to check ban: %w", err)
}
