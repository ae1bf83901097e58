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

const postColumns = `p.post_id, p.community_id, p.author_id, p.idempotency_key, p.title, p.content, p.status,
	p.upvotes, p.downvotes, p.created_at, p.updated_at, p.deleted_at, p.deleted_by`

var PostSort = pagination.Sortable{
	"created_at": "p.created_at",
	"updated_at": "p.updated_at",
	"title":      "p.title",
	"score":      "(p.upvotes - p.downvotes)",
}

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts
		(post_id, community_id, author_id, idempotency_key, title, content, status, created_at, updated_at)
		VALUES
		(:post_id, :community_id, :author_id, :idempotency_key, :title, :content, :status, :created_at, :updated_at)
	`

	if post.PostID == "" {
		post.PostID = uuid.New().String()
	}

	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.ErrConflict, "idempotency key already used")
		}
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p WHERE p.post_id = $1`

	var post models.Post
	err := r.db.GetContext(ctx, &post, query, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("post")
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &post, nil
}

// List returns one page of posts matching the filter and the total count.
// Posts of deleted communities are hidden unless deleted rows are requested.
func (r *postRepository) List(ctx context.Context, filter PostFilter, p pagination.Params) ([]*models.Post, int, error) {
	var cond conditions
	if !filter.IncludeDeleted {
		cond.add("p.deleted_at IS NULL")
		cond.add("c.deleted_at IS NULL")
	}
	if filter.Status != "" {
		cond.add("p.status = ?", filter.Status)
	}
	if filter.CommunityID != "" {
		cond.add("p.community_id = ?", filter.CommunityID)
	}
	if filter.AuthorID != "" {
		cond.add("p.author_id = ?", filter.AuthorID)
	}
	if filter.Query != "" {
		cond.add("p.title ILIKE ?", likePattern(filter.Query))
	}

	from := ` FROM posts p JOIN communities c ON c.community_id = p.community_id`

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*)` + from + cond.where())
	if err := r.db.GetContext(ctx, &total, countQuery, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	posts := []*models.Post{}
	if total == 0 {
		return posts, 0, nil
	}

	query := r.db.Rebind(`SELECT ` + postColumns + from + cond.where() +
		` ORDER BY ` + p.OrderBy() + `, p.post_id LIMIT ? OFFSET ?`)
	args := append(cond.args, p.Limit, p.Offset())

	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}

	return posts, total, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts SET
			title = :title,
			content = :content,
			updated_at = :updated_at
		WHERE post_id = :post_id AND deleted_at IS NULL
	`

	post.UpdatedAt = time.Now().UTC()

	result, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	return checkRowsAffected(result, notFound("post"))
}

func (r *postRepository) Publish(ctx context.Context, postID string, now time.Time) error {
	query := `
		UPDATE posts SET
			status = 'published',
			updated_at = $2
		WHERE post_id = $1 AND status = 'draft' AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, postID, now)
	if err != nil {
		return fmt.Errorf("failed to publish post: %w", err)
	}

	return checkRowsAffected(result, apperr.New(apperr.ErrConflict, "post is already published"))
}

func (r *postRepository) SoftDelete(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET deleted_at = :deleted_at, deleted_by = :deleted_by, updated_at = :deleted_at
		WHERE post_id = :post_id AND deleted_at IS NULL
	`

	result, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return checkRowsAffected(result, apperr.New(apperr.ErrNotFound, "post already deleted"))
}

func (r *postRepository) Restore(ctx context.Context, postID string, now time.Time) error {
	query := `
		UPDATE posts
		SET deleted_at = NULL, deleted_by = NULL, updated_at = $2
		WHERE post_id = $1 AND deleted_at IS NOT NULL
	`

	result, err := r.db.ExecContext(ctx, query, postID, now)
	if err != nil {
		return fmt.Errorf("failed to restore post: %w", err)
	}

	return checkRowsAffected(result, apperr.New(apperr.ErrConflict, "post is not deleted"))
}
