package service

import (
	"context"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/lifecycle"
	"communityboard/internal/models"
	"communityboard/internal/repository"
)

type VoteService interface {
	Cast(ctx context.Context, actor access.Actor, targetType, targetID string, value int) (*models.Vote, error)
	Retract(ctx context.Context, actor access.Actor, targetType, targetID string) error
}

type voteService struct {
	voteRepo    repository.VoteRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	banRepo     repository.BanRepository
	now         clock
}

func NewVoteService(voteRepo repository.VoteRepository, postRepo repository.PostRepository, commentRepo repository.CommentRepository, banRepo repository.BanRepository) VoteService {
	return &voteService{
		voteRepo:    voteRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		banRepo:     banRepo,
		now:         utcNow,
	}
}

// Cast records the actor's vote. Voting again on the same target updates
// the existing vote in place.
func (s *voteService) Cast(ctx context.Context, actor access.Actor, targetType, targetID string, value int) (*models.Vote, error) {
	if err := access.Require(actor, access.CapVote); err != nil {
		return nil, err
	}
	if value != 1 && value != -1 {
		return nil, apperr.New(apperr.ErrValidation, "vote value must be 1 or -1")
	}

	communityID, err := s.targetCommunity(ctx, targetType, targetID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := ensureNotBanned(ctx, s.banRepo, communityID, actor.ID, now); err != nil {
		return nil, err
	}

	return s.voteRepo.Upsert(ctx, &models.Vote{
		UserID:     actor.ID,
		TargetType: targetType,
		TargetID:   targetID,
		Value:      value,
		CreatedAt:  now,
	})
}

func (s *voteService) Retract(ctx context.Context, actor access.Actor, targetType, targetID string) error {
	if err := access.Require(actor, access.CapVote); err != nil {
		return err
	}

	return s.voteRepo.Retract(ctx, actor.ID, targetType, targetID, s.now())
}

// targetCommunity resolves the community of a live vote target.
func (s *voteService) targetCommunity(ctx context.Context, targetType, targetID string) (string, error) {
	switch targetType {
	case models.TargetPost:
		post, err := s.postRepo.GetByID(ctx, targetID)
		if err != nil {
			return "", err
		}
		if lifecycle.Deleted(post) || !post.Published() {
			return "", apperr.New(apperr.ErrNotFound, "post not found")
		}
		return post.CommunityID, nil

	case models.TargetComment:
		comment, err := s.commentRepo.GetByID(ctx, targetID)
		if err != nil {
			return "", err
		}
		if lifecycle.Deleted(comment) {
			return "", apperr.New(apperr.ErrNotFound, "comment not found")
		}
		post, err := s.postRepo.GetByID(ctx, comment.PostID)
		if err != nil {
			return "", err
		}
		if lifecycle.Deleted(post) {
			return "", apperr.New(apperr.ErrNotFound, "comment not found")
		}
		return post.CommunityID, nil
	}

	return "", apperr.Newf(apperr.ErrValidation, "unknown vote target %q", targetType)
}
