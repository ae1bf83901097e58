package repository

import (
	"context"
	"fmt"
	"time"

	"communityboard/internal/apperr"
	"communityboard/internal/models"

	"github.com/jmoiron/sqlx"
)

type moderatorRepository struct {
	db *sqlx.DB
}

func NewModeratorRepository(db *sqlx.DB) ModeratorRepository {
	return &moderatorRepository{db: db}
}

func (r *moderatorRepository) Assign(ctx context.Context, moderator *models.CommunityModerator) error {
	if moderator.CreatedAt.IsZero() {
		moderator.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO community_moderators (community_id, user_id, assigned_by, created_at)
		VALUES (:community_id, :user_id, :assigned_by, :created_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, moderator)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.ErrConflict, "user already moderates this community")
		}
		return fmt.Errorf("failed to assign moderator: %w", err)
	}

	return nil
}

func (r *moderatorRepository) Remove(ctx context.Context, communityID, userID string) error {
	query := `DELETE FROM community_moderators WHERE community_id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, communityID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove moderator: %w", err)
	}

	return checkRowsAffected(result, notFound("moderator"))
}

func (r *moderatorRepository) IsModerator(ctx context.Context, communityID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM community_moderators WHERE community_id = $1 AND user_id = $2)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, communityID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check moderator: %w", err)
	}

	return exists, nil
}

func (r *moderatorRepository) ListByCommunity(ctx context.Context, communityID string) ([]*models.CommunityModerator, error) {
	query := `
		SELECT community_id, user_id, assigned_by, created_at
		FROM community_moderators
		WHERE community_id = $1
		ORDER BY created_at
	`

	moderators := []*models.CommunityModerator{}
	err := r.db.SelectContext(ctx, &moderators, query, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list moderators: %w", err)
	}

	return moderators, nil
}
