package service

import (
	"context"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/lifecycle"
	"communityboard/internal/models"
	"communityboard/internal/pagination"
	"communityboard/internal/repository"
)

type SubscriptionService interface {
	Subscribe(ctx context.Context, actor access.Actor, communityID string) (*models.Subscription, error)
	Unsubscribe(ctx context.Context, actor access.Actor, communityID string) error
	ListSubscriptions(ctx context.Context, actor access.Actor, p pagination.Params) (pagination.Page[*models.Subscription], error)
}

type subscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	communityRepo    repository.CommunityRepository
	now              clock
}

func NewSubscriptionService(subscriptionRepo repository.SubscriptionRepository, communityRepo repository.CommunityRepository) SubscriptionService {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		communityRepo:    communityRepo,
		now:              utcNow,
	}
}

// Subscribe rejects a second active subscription with a conflict.
func (s *subscriptionService) Subscribe(ctx context.Context, actor access.Actor, communityID string) (*models.Subscription, error) {
	if err := access.Require(actor, access.CapSubscribe); err != nil {
		return nil, err
	}

	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if lifecycle.Deleted(community) {
		return nil, apperr.New(apperr.ErrNotFound, "community not found")
	}

	subscription := &models.Subscription{
		UserID:      actor.ID,
		CommunityID: communityID,
		CreatedAt:   s.now(),
	}

	if err := s.subscriptionRepo.Create(ctx, subscription); err != nil {
		return nil, err
	}

	return subscription, nil
}

func (s *subscriptionService) Unsubscribe(ctx context.Context, actor access.Actor, communityID string) error {
	if err := access.Require(actor, access.CapSubscribe); err != nil {
		return err
	}

	return s.subscriptionRepo.Delete(ctx, actor.ID, communityID, s.now())
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context, actor access.Actor, p pagination.Params) (pagination.Page[*models.Subscription], error) {
	if actor.IsGuest() {
		return pagination.Page[*models.Subscription]{}, apperr.New(apperr.ErrUnauthorized, "authentication required")
	}

	subscriptions, total, err := s.subscriptionRepo.ListByUser(ctx, actor.ID, p)
	if err != nil {
		return pagination.Page[*models.Subscription]{}, err
	}

	return pagination.NewPage(p, total, subscriptions), nil
}
