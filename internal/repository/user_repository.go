package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/models"
	"communityboard/internal/pagination"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

const userColumns = `user_id, role, email, username, display_name, password_hash, status,
	failed_attempts, locked_until, created_at, updated_at`

var UserSort = pagination.Sortable{
	"created_at": "created_at",
	"username":   "username",
	"email":      "email",
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(ctx context.Context, user *models.User, password string) error {
	// create password hash
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// create user id
	user.UserID = uuid.New().String()
	user.PasswordHash = string(hashedPassword)
	if user.Status == "" {
		user.Status = models.UserStatusActive
	}
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (user_id, role, email, username, display_name, password_hash, status, created_at, updated_at)
		VALUES (:user_id, :role, :email, :username, :display_name, :password_hash, :status, :created_at, :updated_at)
	`

	_, err = r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.ErrConflict, "identity already exists")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *userRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	err := r.db.GetContext(ctx, &user, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) GetUserByEmail(ctx context.Context, role access.Role, email string) (*models.User, error) {
	var user models.User

	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 AND email = $2`

	err := r.db.GetContext(ctx, &user, query, role, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return &user, nil
}

func (r *userRepository) VerifyPassword(user *models.User, password string) error {
	// checking that the password hash is the same
	err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return apperr.New(apperr.ErrInvalidCredentials, "invalid credentials")
	}

	return nil
}

// LockoutPolicy controls how failed logins lock an account.
type LockoutPolicy struct {
	MaxAttempts int
	// failures older than Window are forgotten
	Window       time.Duration
	LockDuration time.Duration
}

// failure count including the current attempt; a streak whose last
// failure fell outside the window starts again at one
const currentFailures = `CASE WHEN last_failed_at IS NULL OR last_failed_at < $3 THEN 1 ELSE failed_attempts + 1 END`

// RecordLoginFailure bumps the failure counter in a single statement. When
// the counter reaches MaxAttempts the account is locked for LockDuration
// and the counter starts over.
func (r *userRepository) RecordLoginFailure(ctx context.Context, userID string, policy LockoutPolicy, now time.Time) (*models.User, error) {
	query := `
		UPDATE users SET
			failed_attempts = CASE WHEN ` + currentFailures + ` >= $2 THEN 0 ELSE ` + currentFailures + ` END,
			locked_until = CASE WHEN ` + currentFailures + ` >= $2 THEN $4 ELSE locked_until END,
			last_failed_at = $5,
			updated_at = $5
		WHERE user_id = $1
		RETURNING ` + userColumns

	var user models.User
	err := r.db.GetContext(ctx, &user, query,
		userID, policy.MaxAttempts, now.Add(-policy.Window), now.Add(policy.LockDuration), now)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("user")
		}
		return nil, fmt.Errorf("failed to record login failure: %w", err)
	}

	return &user, nil
}

func (r *userRepository) ResetLoginFailures(ctx context.Context, userID string, now time.Time) error {
	query := `
		UPDATE users SET failed_attempts = 0, locked_until = NULL, last_failed_at = NULL, updated_at = $2
		WHERE user_id = $1 AND (failed_attempts <> 0 OR locked_until IS NOT NULL)
	`

	_, err := r.db.ExecContext(ctx, query, userID, now)
	if err != nil {
		return fmt.Errorf("failed to reset login failures: %w", err)
	}

	return nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET username = :username, display_name = :display_name, updated_at = :updated_at
		WHERE user_id = :user_id
	`

	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.New(apperr.ErrConflict, "username already taken")
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	return checkRowsAffected(result, notFound("user"))
}

func (r *userRepository) UpdatePassword(ctx context.Context, userID, password string, now time.Time) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	query := `UPDATE users SET password_hash = $2, updated_at = $3 WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, string(hashedPassword), now)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return checkRowsAffected(result, notFound("user"))
}

func (r *userRepository) SetStatus(ctx context.Context, userID, status string, now time.Time) error {
	query := `UPDATE users SET status = $2, updated_at = $3 WHERE user_id = $1`

	result, err := r.db.ExecContext(ctx, query, userID, status, now)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}

	return checkRowsAffected(result, notFound("user"))
}

func (r *userRepository) List(ctx context.Context, filter UserFilter, p pagination.Params) ([]*models.User, int, error) {
	var cond conditions
	if filter.Role != "" {
		cond.add("role = ?", filter.Role)
	}
	if filter.Query != "" {
		pattern := likePattern(filter.Query)
		cond.add("(username ILIKE ? OR email ILIKE ? OR display_name ILIKE ?)", pattern, pattern, pattern)
	}

	var total int
	countQuery := r.db.Rebind(`SELECT COUNT(*) FROM users` + cond.where())
	if err := r.db.GetContext(ctx, &total, countQuery, cond.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	users := []*models.User{}
	if total == 0 {
		return users, 0, nil
	}

	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users` + cond.where() +
		` ORDER BY ` + p.OrderBy() + ` LIMIT ? OFFSET ?`)
	args := append(cond.args, p.Limit, p.Offset())

	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}

	return users, total, nil
}
