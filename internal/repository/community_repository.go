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

const communityColumns = `community_id, owner_id, name, title, description, restricted,
	created_at, updated_at, deleted_at, deleted_by`

var CommunitySort = pagination.Sortable{
	"created_at": "created_at",
	"name":       "name",
	"title":      "title",
}

type communityRepository struct {
	db *sqlx.DB
}

func NewCommunityRepository(db *sqlx.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	if community.CommunityID == "" {
		community.CommunityID = uuid.New().String()
	}
	now := time.Now().UTC()
	community.CreatedAt = now
	community.UpdatedAt = now

	query := `
		INSERT INTO communities (community_id, owner_id, name, title, description, restricted, created_at, updated_at)
		VALUES (:community_id, :owner_id, :name, :title, :description, :restricted, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, community)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Newf(apperr.ErrConflict, "community %q already exists", community.Name)
		}
		return fmt.Errorf("failed to create community: %w", err)
	}

	return nil
}

func (r *communityRepository) GetByID(ctx context.Context, communityID string) (*models.Community, error) {
	var community models.Community

	query := `SELECT ` + communityColumns + ` FROM communities WHERE community_id = $1`

	err := r.db.GetContext(ctx, &community, query, communityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("community")
		}
		return nil, fmt.Errorf("failed to get community: %w", err)
	}

	return &community, nil
}

func (r *communityRepository) List(ctx context.Context, q string, includeDeleted bool, p pagination.Params) ([]*models.Community, int, error) {
	var cond conditions
	if !includeDeleted {
		cond.add("deleted_at IS NULL")
	}
	if q != "" {
		pattern := likePattern(q)
		cond.add("(name ILIKE ? OR title ILIKE ?)", pattern, pattern)
	}

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM communities` + cond.where())
	if err := r.db.GetContext(ctx, &total, countQuery, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count communities: %w", err)
	}

	communities := []*models.Community{}
	if total == 0 {
		return communities, 0, nil
	}

	query := r.db.Rebind(`SELECT ` + communityColumns + ` FROM communities` + cond.where() +
		` ORDER BY ` + p.OrderBy() + ` LIMIT ? OFFSET ?`)
	args := append(cond.args, p.Limit, p.Offset())

	if err := r.db.SelectContext(ctx, &communities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list communities: %w", err)
	}

	return communities, total, nil
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	community.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE communities
		SET title = :title, description = :description, restricted = :restricted, updated_at = :updated_at
		WHERE community_id = :community_id AND deleted_at IS NULL
	`

	result, err := r.db.NamedExecContext(ctx, query, community)
	if err != nil {
		return fmt.Errorf("failed to update community: %w", err)
	}

	return checkRowsAffected(result, notFound("community"))
}

// SoftDelete persists deleted_at/deleted_by already set on the model. The
// guard makes a concurrent second delete report not found.
func (r *communityRepository) SoftDelete(ctx context.Context, community *models.Community) error {
	query := `
		UPDATE communities
		SET deleted_at = :deleted_at, deleted_by = :deleted_by, updated_at = :deleted_at
		WHERE community_id = :community_id AND deleted_at IS NULL
	`

	result, err := r.db.NamedExecContext(ctx, query, community)
	if err != nil {
		return fmt.Errorf("failed to delete community: %w", err)
	}

	return checkRowsAffected(result, apperr.New(apperr.ErrNotFound, "community already deleted"))
}

func (r *communityRepository) Restore(ctx context.Context, communityID string, now time.Time) error {
	query := `
		UPDATE communities
		SET deleted_at = NULL, deleted_by = NULL, updated_at = $2
		WHERE community_id = $1 AND deleted_at IS NOT NULL
	`

	result, err := r.db.ExecContext(ctx, query, communityID, now)
	if err != nil {
		return fmt.Errorf("failed to restore community: %w", err)
	}

	return checkRowsAffected(result, apperr.New(apperr.ErrConflict, "community is not deleted"))
}
