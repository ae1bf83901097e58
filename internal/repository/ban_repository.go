package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"communityboard/internal/apperr"
	"communityboard/internal/models"
	"communityboard/internal/pagination"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const banColumns = `ban_id, community_id, user_id, issued_by, category, reason, expires_at,
	created_at, updated_at, updated_by, lifted_at, lifted_by`

var BanSort = pagination.Sortable{
	"created_at": "created_at",
	"expires_at": "expires_at",
}

type banRepository struct {
	db *sqlx.DB
}

func NewBanRepository(db *sqlx.DB) BanRepository {
	return &banRepository{db: db}
}

// Create lifts an expired ban still holding the (community, user) slot and
// inserts the new one in the same transaction. An active ban makes the
// insert fail with a conflict.
func (r *banRepository) Create(ctx context.Context, ban *models.Ban) error {
	if ban.BanID == "" {
		ban.BanID = uuid.New().String()
	}
	if ban.CreatedAt.IsZero() {
		ban.CreatedAt = time.Now().UTC()
	}
	ban.UpdatedAt = ban.CreatedAt

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expire := `
		UPDATE bans SET lifted_at = $3, updated_at = $3
		WHERE community_id = $1 AND user_id = $2 AND lifted_at IS NULL
			AND expires_at IS NOT NULL AND expires_at <= $3
	`
	if _, err := tx.ExecContext(ctx, expire, ban.CommunityID, ban.UserID, ban.CreatedAt); err != nil {
		return fmt.Errorf("failed to lift expired bans: %w", err)
	}

	insert := `
		INSERT INTO bans (ban_id, community_id, user_id, issued_by, category, reason, expires_at, created_at, updated_at)
		VALUES (:ban_id, :community_id, :user_id, :issued_by, :category, :reason, :expires_at, :created_at, :updated_at)
	`
	if _, err := tx.NamedExecContext(ctx, insert, ban); err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.ErrConflict, "user is already banned from this community")
		}
		return fmt.Errorf("failed to create ban: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ban: %w", err)
	}

	return nil
}

func (r *banRepository) GetByID(ctx context.Context, banID string) (*models.Ban, error) {
	var ban models.Ban

	query := `SELECT ` + banColumns + ` FROM bans WHERE ban_id = $1`

	err := r.db.GetContext(ctx, &ban, query, banID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("ban")
		}
		return nil, fmt.Errorf("failed to get ban: %w", err)
	}

	return &ban, nil
}

func (r *banRepository) GetActive(ctx context.Context, communityID, userID string, now time.Time) (*models.Ban, error) {
	var ban models.Ban

	query := `
		SELECT ` + banColumns + ` FROM bans
		WHERE community_id = $1 AND user_id = $2 AND lifted_at IS NULL
			AND (expires_at IS NULL OR expires_at > $3)
	`

	err := r.db.GetContext(ctx, &ban, query, communityID, userID, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("ban")
		}
		return nil, fmt.Errorf("failed to get active ban: %w", err)
	}

	return &ban, nil
}

func (r *banRepository) Update(ctx context.Context, ban *models.Ban) error {
	query := `
		UPDATE bans
		SET category = :category, reason = :reason, expires_at = :expires_at,
			updated_at = :updated_at, updated_by = :updated_by
		WHERE ban_id = :ban_id AND lifted_at IS NULL
	`

	result, err := r.db.NamedExecContext(ctx, query, ban)
	if err != nil {
		return fmt.Errorf("failed to update ban: %w", err)
	}

	return checkRowsAffected(result, notFound("ban"))
}

// Lift is the soft delete of a ban.
func (r *banRepository) Lift(ctx context.Context, ban *models.Ban) error {
	query := `
		UPDATE bans
		SET lifted_at = :lifted_at, lifted_by = :lifted_by, updated_at = :lifted_at
		WHERE ban_id = :ban_id AND lifted_at IS NULL
	`

	result, err := r.db.NamedExecContext(ctx, query, ban)
	if err != nil {
		return fmt.Errorf("failed to lift ban: %w", err)
	}

	return checkRowsAffected(result, apperr.New(apperr.ErrNotFound, "ban already lifted"))
}

func (r *banRepository) ListByCommunity(ctx context.Context, communityID string, filter BanFilter, p pagination.Params) ([]*models.Ban, int, error) {
	var cond conditions
	cond.add("community_id = ?", communityID)
	if filter.ActiveOnly {
		cond.add("lifted_at IS NULL AND (expires_at IS NULL OR expires_at > ?)", filter.Now)
	}

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM bans` + cond.where())
	if err := r.db.GetContext(ctx, &total, countQuery, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count bans: %w", err)
	}

	bans := []*models.Ban{}
	if total == 0 {
		return bans, 0, nil
	}

	query := r.db.Rebind(`SELECT ` + banColumns + ` FROM bans` + cond.where() +
		` ORDER BY ` + p.OrderBy() + ` LIMIT ? OFFSET ?`)
	args := append(cond.args, p.Limit, p.Offset())

	if err := r.db.SelectContext(ctx, &bans, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list bans: %w", err)
	}

	return bans, total, nil
}
