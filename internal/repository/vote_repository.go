package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"communityboard/internal/apperr"
	"communityboard/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const voteColumns = `vote_id, user_id, target_type, target_id, value, created_at, updated_at, deleted_at`

// counters per vote target: table and primary key column
var voteTargets = map[string][2]string{
	models.TargetPost:    {"posts", "post_id"},
	models.TargetComment: {"comments", "comment_id"},
}

type voteRepository struct {
	db *sqlx.DB
}

func NewVoteRepository(db *sqlx.DB) VoteRepository {
	return &voteRepository{db: db}
}

// Upsert records the vote or updates the value of the user's active vote
// on the same target. The returned vote keeps its original id. Target
// counters are recomputed in the same transaction.
func (r *voteRepository) Upsert(ctx context.Context, vote *models.Vote) (*models.Vote, error) {
	if _, ok := voteTargets[vote.TargetType]; !ok {
		return nil, apperr.Newf(apperr.ErrValidation, "unknown vote target %q", vote.TargetType)
	}
	if vote.VoteID == "" {
		vote.VoteID = uuid.New().String()
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO votes (vote_id, user_id, target_type, target_id, value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (user_id, target_type, target_id) WHERE deleted_at IS NULL
		DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		RETURNING ` + voteColumns

	var saved models.Vote
	err = tx.GetContext(ctx, &saved, query,
		vote.VoteID, vote.UserID, vote.TargetType, vote.TargetID, vote.Value, vote.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save vote: %w", err)
	}

	if err := recount(ctx, tx, vote.TargetType, vote.TargetID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit vote: %w", err)
	}

	return &saved, nil
}

func (r *voteRepository) Retract(ctx context.Context, userID, targetType, targetID string, now time.Time) error {
	if _, ok := voteTargets[targetType]; !ok {
		return apperr.Newf(apperr.ErrValidation, "unknown vote target %q", targetType)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE votes SET deleted_at = $4, updated_at = $4
		WHERE user_id = $1 AND target_type = $2 AND target_id = $3 AND deleted_at IS NULL
	`

	result, err := tx.ExecContext(ctx, query, userID, targetType, targetID, now)
	if err != nil {
		return fmt.Errorf("failed to retract vote: %w", err)
	}
	if err := checkRowsAffected(result, notFound("vote")); err != nil {
		return err
	}

	if err := recount(ctx, tx, targetType, targetID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit vote retraction: %w", err)
	}

	return nil
}

func (r *voteRepository) Get(ctx context.Context, userID, targetType, targetID string) (*models.Vote, error) {
	query := `
		SELECT ` + voteColumns + ` FROM votes
		WHERE user_id = $1 AND target_type = $2 AND target_id = $3 AND deleted_at IS NULL
	`

	var vote models.Vote
	err := r.db.GetContext(ctx, &vote, query, userID, targetType, targetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("vote")
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}

	return &vote, nil
}

func recount(ctx context.Context, tx *sqlx.Tx, targetType, targetID string) error {
	target := voteTargets[targetType]

	query := fmt.Sprintf(`
		UPDATE %[1]s SET
			upvotes = (SELECT COUNT(*) FROM votes WHERE target_type = $1 AND target_id = $2 AND value = 1 AND deleted_at IS NULL),
			downvotes = (SELECT COUNT(*) FROM votes WHERE target_type = $1 AND target_id = $2 AND value = -1 AND deleted_at IS NULL)
		WHERE %[2]s = $2
	`, target[0], target[1])

	if _, err := tx.ExecContext(ctx, query, targetType, targetID); err != nil {
		return fmt.Errorf("failed to recount votes: %w", err)
	}

	return nil
}
