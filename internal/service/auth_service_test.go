package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/config"
	"communityboard/internal/models"
	"communityboard/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecretKey:         "test-secret",
		AccessTokenDuration:  15 * time.Minute,
		RefreshTokenDuration: 7 * 24 * time.Hour,
		LoginMaxAttempts:     5,
		LoginLockDuration:    15 * time.Minute,
		LoginFailureWindow:   10 * time.Minute,
	}
}

var testLockout = repository.LockoutPolicy{MaxAttempts: 5, Window: 10 * time.Minute, LockDuration: 15 * time.Minute}

type authFixture struct {
	users    *MockUserRepository
	sessions *MockSessionRepository
	events   *recorder
	cfg      *config.Config
	svc      *authService
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		users:    new(MockUserRepository),
		sessions: new(MockSessionRepository),
		events:   &recorder{},
		cfg:      testConfig(),
	}
	f.svc = &authService{
		userRepo:    f.users,
		sessionRepo: f.sessions,
		cfg:         f.cfg,
		recorder:    f.events,
		now:         fixedClock,
	}
	return f
}

func activeUser() *models.User {
	return &models.User{
		UserID:   "user-1",
		Role:     access.RoleMember,
		Email:    "alice@example.com",
		Username: "alice",
		Status:   models.UserStatusActive,
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	client := Client{UserAgent: "test", IPAddress: "127.0.0.1"}

	t.Run("success opens a session and resets failures", func(t *testing.T) {
		f := newAuthFixture()
		user := activeUser()
		user.FailedAttempts = 3

		f.users.On("GetUserByEmail", ctx, access.RoleMember, "alice@example.com").Return(user, nil)
		f.users.On("VerifyPassword", user, "secret123").Return(nil)
		f.users.On("ResetLoginFailures", ctx, "user-1", fixedNow).Return(nil)
		f.sessions.On("Create", ctx, mock.AnythingOfType("*models.Session")).
			Run(func(args mock.Arguments) {
				args.Get(1).(*models.Session).SessionID = "sess-1"
			}).
			Return(nil)

		result, err := f.svc.Login(ctx, access.RoleMember, "alice@example.com", "secret123", client)

		require.NoError(t, err)
		assert.Equal(t, 0, result.User.FailedAttempts)
		assert.NotEmpty(t, result.Tokens.AccessToken)
		assert.NotEmpty(t, result.Tokens.RefreshToken)
		assert.Equal(t, fixedNow.Add(15*time.Minute), result.Tokens.ExpiresAt)
		assert.Equal(t, []string{"login_succeeded"}, f.events.auth)
		f.users.AssertExpectations(t)
		f.sessions.AssertExpectations(t)
	})

	t.Run("unknown email is invalid credentials", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("GetUserByEmail", ctx, access.RoleMember, "nobody@example.com").
			Return(nil, apperr.New(apperr.ErrNotFound, "user not found"))

		_, err := f.svc.Login(ctx, access.RoleMember, "nobody@example.com", "secret123", client)

		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	})

	t.Run("wrong password below the threshold", func(t *testing.T) {
		f := newAuthFixture()
		user := activeUser()
		updated := activeUser()
		updated.FailedAttempts = 1

		f.users.On("GetUserByEmail", ctx, access.RoleMember, "alice@example.com").Return(user, nil)
		f.users.On("VerifyPassword", user, "wrong").Return(apperr.New(apperr.ErrInvalidCredentials, "invalid credentials"))
		f.users.On("RecordLoginFailure", ctx, "user-1", testLockout, fixedNow).Return(updated, nil)

		_, err := f.svc.Login(ctx, access.RoleMember, "alice@example.com", "wrong", client)

		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
		assert.Equal(t, []string{"login_failed"}, f.events.auth)
		f.sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("failure reaching the threshold locks the account", func(t *testing.T) {
		f := newAuthFixture()
		user := activeUser()
		user.FailedAttempts = 4
		lockedUntil := fixedNow.Add(15 * time.Minute)
		locked := activeUser()
		locked.LockedUntil = &lockedUntil

		f.users.On("GetUserByEmail", ctx, access.RoleMember, "alice@example.com").Return(user, nil)
		f.users.On("VerifyPassword", user, "wrong").Return(apperr.New(apperr.ErrInvalidCredentials, "invalid credentials"))
		f.users.On("RecordLoginFailure", ctx, "user-1", testLockout, fixedNow).Return(locked, nil)

		_, err := f.svc.Login(ctx, access.RoleMember, "alice@example.com", "wrong", client)

		assert.ErrorIs(t, err, apperr.ErrAccountLocked)
		assert.Contains(t, apperr.Message(err), lockedUntil.Format(time.RFC3339))
		assert.Equal(t, []string{"account_locked"}, f.events.auth)
	})

	t.Run("locked account rejects even the correct password", func(t *testing.T) {
		f := newAuthFixture()
		user := activeUser()
		lockedUntil := fixedNow.Add(5 * time.Minute)
		user.LockedUntil = &lockedUntil

		f.users.On("GetUserByEmail", ctx, access.RoleMember, "alice@example.com").Return(user, nil)

		_, err := f.svc.Login(ctx, access.RoleMember, "alice@example.com", "secret123", client)

		assert.ErrorIs(t, err, apperr.ErrAccountLocked)
		f.users.AssertNotCalled(t, "VerifyPassword", mock.Anything, mock.Anything)
	})

	t.Run("expired lock allows login", func(t *testing.T) {
		f := newAuthFixture()
		user := activeUser()
		expired := fixedNow.Add(-time.Minute)
		user.LockedUntil = &expired

		f.users.On("GetUserByEmail", ctx, access.RoleMember, "alice@example.com").Return(user, nil)
		f.users.On("VerifyPassword", user, "secret123").Return(nil)
		f.users.On("ResetLoginFailures", ctx, "user-1", fixedNow).Return(nil)
		f.sessions.On("Create", ctx, mock.Anything).Return(nil)

		result, err := f.svc.Login(ctx, access.RoleMember, "alice@example.com", "secret123", client)

		require.NoError(t, err)
		assert.Nil(t, result.User.LockedUntil)
	})

	t.Run("deactivated user cannot log in", func(t *testing.T) {
		f := newAuthFixture()
		user := activeUser()
		user.Status = models.UserStatusDeactivated

		f.users.On("GetUserByEmail", ctx, access.RoleMember, "alice@example.com").Return(user, nil)

		_, err := f.svc.Login(ctx, access.RoleMember, "alice@example.com", "secret123", client)

		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	})
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("guest role is rejected", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.svc.Register(ctx, RegisterInput{Role: access.RoleGuest, Email: "g@example.com", Password: "secret123"}, Client{})

		assert.ErrorIs(t, err, apperr.ErrValidation)
		f.users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("weak password is rejected", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.svc.Register(ctx, RegisterInput{Role: access.RoleMember, Email: "a@example.com", Password: "short"}, Client{})

		assert.ErrorIs(t, err, apperr.ErrValidation)
	})

	t.Run("duplicate email surfaces the conflict", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("CreateUser", ctx, mock.Anything, "secret123").
			Return(apperr.New(apperr.ErrConflict, "email already registered"))

		_, err := f.svc.Register(ctx, RegisterInput{Role: access.RoleMember, Email: "a@example.com", Username: "alice", Password: "secret123"}, Client{})

		assert.ErrorIs(t, err, apperr.ErrConflict)
	})

	t.Run("success logs the user in", func(t *testing.T) {
		f := newAuthFixture()
		f.users.On("CreateUser", ctx, mock.AnythingOfType("*models.User"), "secret123").
			Run(func(args mock.Arguments) {
				args.Get(1).(*models.User).UserID = "user-9"
			}).
			Return(nil)
		f.sessions.On("Create", ctx, mock.Anything).Return(nil)

		result, err := f.svc.Register(ctx, RegisterInput{Role: access.RoleSeller, Email: "s@example.com", Username: "seller", Password: "secret123"}, Client{})

		require.NoError(t, err)
		assert.Equal(t, "user-9", result.User.UserID)
		assert.Equal(t, models.UserStatusActive, result.User.Status)
		assert.Equal(t, []string{"registered"}, f.events.auth)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("rotates the refresh token", func(t *testing.T) {
		f := newAuthFixture()
		session := &models.Session{SessionID: "sess-1", UserID: "user-1", RefreshToken: "old", ExpiresAt: fixedNow.Add(time.Hour)}

		f.sessions.On("GetActiveByRefreshToken", ctx, "old", fixedNow).Return(session, nil)
		f.users.On("GetUserByID", ctx, "user-1").Return(activeUser(), nil)
		f.sessions.On("Rotate", ctx, "sess-1", "old", mock.AnythingOfType("string"), fixedNow.Add(7*24*time.Hour), fixedNow).Return(nil)

		pair, err := f.svc.Refresh(ctx, "old")

		require.NoError(t, err)
		assert.NotEqual(t, "old", pair.RefreshToken)
		assert.NotEmpty(t, pair.AccessToken)
		f.sessions.AssertExpectations(t)
	})

	t.Run("unknown or revoked token", func(t *testing.T) {
		f := newAuthFixture()
		f.sessions.On("GetActiveByRefreshToken", ctx, "gone", fixedNow).
			Return(nil, apperr.New(apperr.ErrNotFound, "session not found"))

		_, err := f.svc.Refresh(ctx, "gone")

		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	})

	t.Run("losing a concurrent rotation", func(t *testing.T) {
		f := newAuthFixture()
		session := &models.Session{SessionID: "sess-1", UserID: "user-1", RefreshToken: "old", ExpiresAt: fixedNow.Add(time.Hour)}

		f.sessions.On("GetActiveByRefreshToken", ctx, "old", fixedNow).Return(session, nil)
		f.users.On("GetUserByID", ctx, "user-1").Return(activeUser(), nil)
		f.sessions.On("Rotate", ctx, "sess-1", "old", mock.Anything, mock.Anything, fixedNow).
			Return(apperr.New(apperr.ErrNotFound, "session not found"))

		_, err := f.svc.Refresh(ctx, "old")

		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	})
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token yields the actor", func(t *testing.T) {
		f := newAuthFixture()
		token, _, err := f.svc.generateAccessToken(activeUser(), "sess-1", fixedNow)
		require.NoError(t, err)

		f.sessions.On("GetByID", ctx, "sess-1").
			Return(&models.Session{SessionID: "sess-1", UserID: "user-1", ExpiresAt: fixedNow.Add(time.Hour)}, nil)
		f.users.On("GetUserByID", ctx, "user-1").Return(activeUser(), nil)

		actor, err := f.svc.Authenticate(ctx, token)

		require.NoError(t, err)
		assert.Equal(t, "user-1", actor.ID)
		assert.Equal(t, access.RoleMember, actor.Role)
		assert.Equal(t, "sess-1", actor.SessionID)
	})

	t.Run("revoked session invalidates the access token", func(t *testing.T) {
		f := newAuthFixture()
		token, _, err := f.svc.generateAccessToken(activeUser(), "sess-1", fixedNow)
		require.NoError(t, err)

		revokedAt := fixedNow.Add(-time.Minute)
		f.sessions.On("GetByID", ctx, "sess-1").
			Return(&models.Session{SessionID: "sess-1", UserID: "user-1", ExpiresAt: fixedNow.Add(time.Hour), RevokedAt: &revokedAt}, nil)

		actor, err := f.svc.Authenticate(ctx, token)

		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
		assert.True(t, actor.IsGuest())
		f.users.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
	})

	t.Run("expired token", func(t *testing.T) {
		f := newAuthFixture()
		token, _, err := f.svc.generateAccessToken(activeUser(), "sess-1", fixedNow.Add(-time.Hour))
		require.NoError(t, err)

		_, err = f.svc.Authenticate(ctx, token)

		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
		f.sessions.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("token signed with another key", func(t *testing.T) {
		f := newAuthFixture()
		other := newAuthFixture()
		other.cfg.JWTSecretKey = "another-secret"
		token, _, err := other.svc.generateAccessToken(activeUser(), "sess-1", fixedNow)
		require.NoError(t, err)

		_, err = f.svc.Authenticate(ctx, token)

		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		f := newAuthFixture()

		_, err := f.svc.Authenticate(ctx, "not-a-jwt")

		assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("revokes the current session", func(t *testing.T) {
		f := newAuthFixture()
		f.sessions.On("Revoke", ctx, "sess-1", "user-1", fixedNow).Return(nil)

		err := f.svc.Logout(ctx, access.NewActor("user-1", access.RoleMember, "sess-1"))

		require.NoError(t, err)
		assert.Equal(t, []string{"logout"}, f.events.auth)
	})

	t.Run("guest", func(t *testing.T) {
		f := newAuthFixture()

		err := f.svc.Logout(ctx, access.Guest())

		assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	actor := access.NewActor("user-1", access.RoleMember, "sess-1")

	t.Run("revokes other sessions when configured", func(t *testing.T) {
		f := newAuthFixture()
		f.cfg.RevokeSessionsOnPasswordChange = true
		user := activeUser()

		f.users.On("GetUserByID", ctx, "user-1").Return(user, nil)
		f.users.On("VerifyPassword", user, "secret123").Return(nil)
		f.users.On("UpdatePassword", ctx, "user-1", "newsecret456", fixedNow).Return(nil)
		f.sessions.On("RevokeAll", ctx, "user-1", "sess-1", fixedNow).Return(int64(2), nil)

		err := f.svc.ChangePassword(ctx, actor, "secret123", "newsecret456")

		require.NoError(t, err)
		f.sessions.AssertExpectations(t)
	})

	t.Run("keeps sessions by default", func(t *testing.T) {
		f := newAuthFixture()
		user := activeUser()

		f.users.On("GetUserByID", ctx, "user-1").Return(user, nil)
		f.users.On("VerifyPassword", user, "secret123").Return(nil)
		f.users.On("UpdatePassword", ctx, "user-1", "newsecret456", fixedNow).Return(nil)

		err := f.svc.ChangePassword(ctx, actor, "secret123", "newsecret456")

		require.NoError(t, err)
		f.sessions.AssertNotCalled(t, "RevokeAll", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("wrong current password", func(t *testing.T) {
		f := newAuthFixture()
		user := activeUser()

		f.users.On("GetUserByID", ctx, "user-1").Return(user, nil)
		f.users.On("VerifyPassword", user, "wrong").Return(apperr.New(apperr.ErrInvalidCredentials, "invalid credentials"))

		err := f.svc.ChangePassword(ctx, actor, "wrong", "newsecret456")

		assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
		f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "letters and digits", password: "secret123"},
		{name: "too short", password: "abc1", wantErr: true},
		{name: "no digit", password: "onlyletters", wantErr: true},
		{name: "no letter", password: "1234567890", wantErr: true},
		{name: "longer than bcrypt accepts", password: "a1" + strings.Repeat("b", 71), wantErr: true},
		{name: "exactly 72 bytes", password: "a1" + strings.Repeat("b", 70)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperr.ErrValidation)
				return
			}
			assert.NoError(t, err)
		})
	}
}
