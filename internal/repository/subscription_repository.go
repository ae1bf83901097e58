package repository

import (
	"context"
	"fmt"
	"time"

	"communityboard/internal/apperr"
	"communityboard/internal/models"
	"communityboard/internal/pagination"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var SubscriptionSort = pagination.Sortable{
	"created_at": "created_at",
}

type subscriptionRepository struct {
	db *sqlx.DB
}

func NewSubscriptionRepository(db *sqlx.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create rejects a second active subscription to the same community.
func (r *subscriptionRepository) Create(ctx context.Context, subscription *models.Subscription) error {
	if subscription.SubscriptionID == "" {
		subscription.SubscriptionID = uuid.New().String()
	}
	if subscription.CreatedAt.IsZero() {
		subscription.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO subscriptions (subscription_id, user_id, community_id, created_at)
		VALUES (:subscription_id, :user_id, :community_id, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, subscription)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.ErrConflict, "already subscribed")
		}
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

func (r *subscriptionRepository) Delete(ctx context.Context, userID, communityID string, now time.Time) error {
	query := `
		UPDATE subscriptions SET deleted_at = $3
		WHERE user_id = $1 AND community_id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, userID, communityID, now)
	if err != nil {
		return fmt.Errorf("failed to delete subscription: %w", err)
	}

	return checkRowsAffected(result, notFound("subscription"))
}

func (r *subscriptionRepository) ListByUser(ctx context.Context, userID string, p pagination.Params) ([]*models.Subscription, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = $1 AND deleted_at IS NULL`, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	subscriptions := []*models.Subscription{}
	if total == 0 {
		return subscriptions, 0, nil
	}

	query := `
		SELECT subscription_id, user_id, community_id, created_at, deleted_at
		FROM subscriptions
		WHERE user_id = $1 AND deleted_at IS NULL
		ORDER BY ` + p.OrderBy() + ` LIMIT $2 OFFSET $3`

	err = r.db.SelectContext(ctx, &subscriptions, query, userID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subscriptions, total, nil
}
