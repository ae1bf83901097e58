package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/config"
	"communityboard/internal/models"
	"communityboard/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	minPasswordLength = 8
	// bcrypt ignores everything past 72 bytes
	maxPasswordLength = 72
)

// Client identifies the device a session is opened from.
type Client struct {
	UserAgent string
	IPAddress string
}

type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

type Authorized struct {
	User   *models.User `json:"user"`
	Tokens TokenPair    `json:"tokens"`
}

type RegisterInput struct {
	Role        access.Role
	Email       string
	Username    string
	Password    string
	DisplayName string
}

// Claims of an access token. The subject is the user id.
type Claims struct {
	Role      access.Role `json:"role"`
	SessionID string      `json:"sid"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput, client Client) (*Authorized, error)
	Login(ctx context.Context, role access.Role, email, password string, client Client) (*Authorized, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, actor access.Actor) error
	Authenticate(ctx context.Context, accessToken string) (access.Actor, error)
	Sessions(ctx context.Context, actor access.Actor) ([]*models.Session, error)
	RevokeSession(ctx context.Context, actor access.Actor, sessionID string) error
	ChangePassword(ctx context.Context, actor access.Actor, oldPassword, newPassword string) error
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	cfg         *config.Config
	recorder    EventRecorder
	now         clock
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, cfg *config.Config, recorder EventRecorder) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		cfg:         cfg,
		recorder:    recorderOrNoop(recorder),
		now:         utcNow,
	}
}

func (s *authService) Register(ctx context.Context, in RegisterInput, client Client) (*Authorized, error) {
	if !in.Role.Registrable() {
		return nil, apperr.Newf(apperr.ErrValidation, "role %q cannot be registered", in.Role)
	}
	if err := ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	user := &models.User{
		Role:        in.Role,
		Email:       in.Email,
		Username:    in.Username,
		DisplayName: in.DisplayName,
		Status:      models.UserStatusActive,
	}

	if err := s.userRepo.CreateUser(ctx, user, in.Password); err != nil {
		return nil, err
	}
	s.recorder.AuthEvent("registered")

	return s.openSession(ctx, user, client)
}

func (s *authService) Login(ctx context.Context, role access.Role, email, password string, client Client) (*Authorized, error) {
	invalid := apperr.New(apperr.ErrInvalidCredentials, "invalid credentials")

	if !role.Registrable() {
		return nil, invalid
	}

	user, err := s.userRepo.GetUserByEmail(ctx, role, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			s.recorder.AuthEvent("login_failed")
			return nil, invalid
		}
		return nil, err
	}

	if !user.Active() {
		s.recorder.AuthEvent("login_failed")
		return nil, invalid
	}

	now := s.now()
	if user.Locked(now) {
		s.recorder.AuthEvent("login_locked")
		return nil, lockedError(*user.LockedUntil)
	}

	// check password
	if err := s.userRepo.VerifyPassword(user, password); err != nil {
		updated, err := s.userRepo.RecordLoginFailure(ctx, user.UserID, s.lockoutPolicy(), now)
		if err != nil {
			return nil, err
		}
		if updated.Locked(now) {
			s.recorder.AuthEvent("account_locked")
			return nil, lockedError(*updated.LockedUntil)
		}
		s.recorder.AuthEvent("login_failed")
		return nil, invalid
	}

	if err := s.userRepo.ResetLoginFailures(ctx, user.UserID, now); err != nil {
		return nil, err
	}
	user.FailedAttempts = 0
	user.LockedUntil = nil

	s.recorder.AuthEvent("login_succeeded")
	return s.openSession(ctx, user, client)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	invalid := apperr.New(apperr.ErrInvalidToken, "invalid or expired refresh token")
	now := s.now()

	session, err := s.sessionRepo.GetActiveByRefreshToken(ctx, refreshToken, now)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !user.Active() {
		return nil, invalid
	}

	newRefreshToken := generateRefreshToken()
	err = s.sessionRepo.Rotate(ctx, session.SessionID, refreshToken, newRefreshToken, now.Add(s.cfg.RefreshTokenDuration), now)
	if err != nil {
		// lost the race against a concurrent refresh or a revocation
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	accessToken, expiresAt, err := s.generateAccessToken(user, session.SessionID, now)
	if err != nil {
		return nil, err
	}

	s.recorder.AuthEvent("token_refreshed")
	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken, ExpiresAt: expiresAt}, nil
}

func (s *authService) Logout(ctx context.Context, actor access.Actor) error {
	if actor.IsGuest() {
		return apperr.New(apperr.ErrUnauthorized, "authentication required")
	}

	err := s.sessionRepo.Revoke(ctx, actor.SessionID, actor.ID, s.now())
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.New(apperr.ErrInvalidToken, "session is no longer active")
		}
		return err
	}

	s.recorder.AuthEvent("logout")
	return nil
}

// Authenticate turns an access token into an actor. The token must carry
// a valid signature and expiry, and both its session and its user must
// still be active.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (access.Actor, error) {
	invalid := apperr.New(apperr.ErrInvalidToken, "invalid or expired access token")

	claims, err := s.parseAccessToken(accessToken)
	if err != nil {
		return access.Guest(), invalid
	}

	now := s.now()
	session, err := s.sessionRepo.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return access.Guest(), invalid
		}
		return access.Guest(), err
	}
	if !session.Active(now) || session.UserID != claims.Subject {
		return access.Guest(), invalid
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return access.Guest(), invalid
		}
		return access.Guest(), err
	}
	if !user.Active() {
		return access.Guest(), invalid
	}

	return access.NewActor(user.UserID, user.Role, session.SessionID), nil
}

func (s *authService) Sessions(ctx context.Context, actor access.Actor) ([]*models.Session, error) {
	if actor.IsGuest() {
		return nil, apperr.New(apperr.ErrUnauthorized, "authentication required")
	}
	return s.sessionRepo.ListActive(ctx, actor.ID, s.now())
}

// RevokeSession revokes one of the actor's own sessions. Sessions of other
// users are reported as not found.
func (s *authService) RevokeSession(ctx context.Context, actor access.Actor, sessionID string) error {
	if actor.IsGuest() {
		return apperr.New(apperr.ErrUnauthorized, "authentication required")
	}
	return s.sessionRepo.Revoke(ctx, sessionID, actor.ID, s.now())
}

func (s *authService) ChangePassword(ctx context.Context, actor access.Actor, oldPassword, newPassword string) error {
	if actor.IsGuest() {
		return apperr.New(apperr.ErrUnauthorized, "authentication required")
	}

	user, err := s.userRepo.GetUserByID(ctx, actor.ID)
	if err != nil {
		return err
	}

	if err := s.userRepo.VerifyPassword(user, oldPassword); err != nil {
		return err
	}
	if err := ValidatePassword(newPassword); err != nil {
		return err
	}

	now := s.now()
	if err := s.userRepo.UpdatePassword(ctx, user.UserID, newPassword, now); err != nil {
		return err
	}

	if s.cfg.RevokeSessionsOnPasswordChange {
		if _, err := s.sessionRepo.RevokeAll(ctx, user.UserID, actor.SessionID, now); err != nil {
			return err
		}
	}

	s.recorder.AuthEvent("password_changed")
	return nil
}

func (s *authService) openSession(ctx context.Context, user *models.User, client Client) (*Authorized, error) {
	now := s.now()

	session := &models.Session{
		UserID:       user.UserID,
		RefreshToken: generateRefreshToken(),
		UserAgent:    truncate(client.UserAgent, 255),
		IPAddress:    truncate(client.IPAddress, 64),
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.cfg.RefreshTokenDuration),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	accessToken, expiresAt, err := s.generateAccessToken(user, session.SessionID, now)
	if err != nil {
		return nil, err
	}

	return &Authorized{
		User: user,
		Tokens: TokenPair{
			AccessToken:  accessToken,
			RefreshToken: session.RefreshToken,
			ExpiresAt:    expiresAt,
		},
	}, nil
}

func (s *authService) generateAccessToken(user *models.User, sessionID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.cfg.AccessTokenDuration)

	claims := Claims{
		Role:      user.Role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.cfg.JWTSecretKey))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expiresAt, nil
}

func (s *authService) parseAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWTSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid || claims.Subject == "" || claims.SessionID == "" {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}

func generateRefreshToken() string {
	return uuid.New().String()
}

// ValidatePassword applies the password policy: 8 to 72 bytes with at
// least one letter and one digit.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return apperr.Newf(apperr.ErrValidation, "password must be between %d and %d characters", minPasswordLength, maxPasswordLength)
	}

	var letter, digit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}

	if !letter || !digit {
		return apperr.New(apperr.ErrValidation, "password must contain at least one letter and one digit")
	}

	return nil
}

func lockedError(until time.Time) error {
	return apperr.Newf(apperr.ErrAccountLocked, "account locked until %s", until.UTC().Format(time.RFC3339))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (s *authService) lockoutPolicy() repository.LockoutPolicy {
	return repository.LockoutPolicy{
		MaxAttempts:  s.cfg.LoginMaxAttempts,
		Window:       s.cfg.LoginFailureWindow,
		LockDuration: s.cfg.LoginLockDuration,
	}
}
