package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"communityboard/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
)

const sessionColumns = `session_id, user_id, refresh_token, user_agent, ip_address,
	created_at, last_used_at, expires_at, revoked_at`

type sessionRepository struct {
	db *sqlx.DB
}

func NewSessionRepository(db *sqlx.DB) SessionRepository {
	return &sessionRepository{db: db}
}

// Create stores a new session. Session ids are ULIDs so they sort by
// creation time.
func (r *sessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.SessionID == "" {
		session.SessionID = ulid.Make().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	session.LastUsedAt = session.CreatedAt

	query := `
		INSERT INTO sessions (session_id, user_id, refresh_token, user_agent, ip_address, created_at, last_used_at, expires_at)
		VALUES (:session_id, :user_id, :refresh_token, :user_agent, :ip_address, :created_at, :last_used_at, :expires_at)
	`

	_, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	return nil
}

func (r *sessionRepository) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	var session models.Session

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE session_id = $1`

	err := r.db.GetContext(ctx, &session, query, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("session")
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &session, nil
}

func (r *sessionRepository) GetActiveByRefreshToken(ctx context.Context, refreshToken string, now time.Time) (*models.Session, error) {
	var session models.Session

	query := `
		SELECT ` + sessionColumns + ` FROM sessions
		WHERE refresh_token = $1 AND revoked_at IS NULL AND expires_at > $2
	`

	err := r.db.GetContext(ctx, &session, query, refreshToken, now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("session")
		}
		return nil, fmt.Errorf("failed to get session by refresh token: %w", err)
	}

	return &session, nil
}

// Rotate swaps the refresh token only if oldToken is still the current
// one, so two concurrent refreshes cannot both succeed.
func (r *sessionRepository) Rotate(ctx context.Context, sessionID, oldToken, newToken string, expiresAt, now time.Time) error {
	query := `
		UPDATE sessions
		SET refresh_token = $3, expires_at = $4, last_used_at = $5
		WHERE session_id = $1 AND refresh_token = $2 AND revoked_at IS NULL AND expires_at > $5
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, oldToken, newToken, expiresAt, now)
	if err != nil {
		return fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return checkRowsAffected(result, notFound("session"))
}

func (r *sessionRepository) Revoke(ctx context.Context, sessionID, userID string, now time.Time) error {
	query := `
		UPDATE sessions SET revoked_at = $3
		WHERE session_id = $1 AND user_id = $2 AND revoked_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, sessionID, userID, now)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return checkRowsAffected(result, notFound("session"))
}

// RevokeAll revokes every active session of the user except
// exceptSessionID (which may be empty).
func (r *sessionRepository) RevokeAll(ctx context.Context, userID, exceptSessionID string, now time.Time) (int64, error) {
	query := `
		UPDATE sessions SET revoked_at = $3
		WHERE user_id = $1 AND session_id <> $2 AND revoked_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, userID, exceptSessionID, now)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}

	return result.RowsAffected()
}

func (r *sessionRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]*models.Session, error) {
	query := `
		SELECT ` + sessionColumns + ` FROM sessions
		WHERE user_id = $1 AND revoked_at IS NULL AND expires_at > $2
		ORDER BY created_at DESC
	`

	sessions := []*models.Session{}
	err := r.db.SelectContext(ctx, &sessions, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return sessions, nil
}
