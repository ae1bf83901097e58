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

const commentColumns = `comment_id, post_id, author_id, parent_id, depth, content, upvotes, downvotes,
	created_at, updated_at, deleted_at, deleted_by`

var CommentSort = pagination.Sortable{
	"created_at": "created_at",
	"score":      "(upvotes - downvotes)",
}

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.CommentID == "" {
		comment.CommentID = uuid.New().String()
	}
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	query := `
		INSERT INTO comments (comment_id, post_id, author_id, parent_id, depth, content, created_at, updated_at)
		VALUES (:comment_id, :post_id, :author_id, :parent_id, :depth, :content, :created_at, :updated_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, commentID string) (*models.Comment, error) {
	var comment models.Comment

	query := `SELECT ` + commentColumns + ` FROM comments WHERE comment_id = $1`

	err := r.db.GetContext(ctx, &comment, query, commentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("comment")
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return &comment, nil
}

// ListByPost includes deleted comments; their content is already masked.
func (r *commentRepository) ListByPost(ctx context.Context, postID string, p pagination.Params) ([]*models.Comment, int, error) {
	var total int
	err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count comments: %w", err)
	}

	comments := []*models.Comment{}
	if total == 0 {
		return comments, 0, nil
	}

	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_id = $1
		ORDER BY ` + p.OrderBy() + `, comment_id LIMIT $2 OFFSET $3`

	err = r.db.SelectContext(ctx, &comments, query, postID, p.Limit, p.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list comments: %w", err)
	}

	return comments, total, nil
}

func (r *commentRepository) Update(ctx context.Context, comment *models.Comment) error {
	comment.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE comments SET content = :content, updated_at = :updated_at
		WHERE comment_id = :comment_id AND deleted_at IS NULL
	`

	result, err := r.db.NamedExecContext(ctx, query, comment)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}

	return checkRowsAffected(result, notFound("comment"))
}

// SoftDelete stores the masked content together with the deletion markers.
func (r *commentRepository) SoftDelete(ctx context.Context, comment *models.Comment) error {
	query := `
		UPDATE comments
		SET content = :content, deleted_at = :deleted_at, deleted_by = :deleted_by, updated_at = :deleted_at
		WHERE comment_id = :comment_id AND deleted_at IS NULL
	`

	result, err := r.db.NamedExecContext(ctx, query, comment)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return checkRowsAffected(result, apperr.New(apperr.ErrNotFound, "comment already deleted"))
}
