package service

import (
	"context"
	"io"
	"time"

	"communityboard/internal/access"
	"communityboard/internal/models"
	"communityboard/internal/pagination"
	"communityboard/internal/repository"

	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *models.User, password string) error {
	args := m.Called(ctx, user, password)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, role access.Role, email string) (*models.User, error) {
	args := m.Called(ctx, role, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) VerifyPassword(user *models.User, password string) error {
	args := m.Called(user, password)
	return args.Error(0)
}

func (m *MockUserRepository) RecordLoginFailure(ctx context.Context, userID string, policy repository.LockoutPolicy, now time.Time) (*models.User, error) {
	args := m.Called(ctx, userID, policy, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ResetLoginFailures(ctx context.Context, userID string, now time.Time) error {
	args := m.Called(ctx, userID, now)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID, password string, now time.Time) error {
	args := m.Called(ctx, userID, password, now)
	return args.Error(0)
}

func (m *MockUserRepository) SetStatus(ctx context.Context, userID, status string, now time.Time) error {
	args := m.Called(ctx, userID, status, now)
	return args.Error(0)
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter, p pagination.Params) ([]*models.User, int, error) {
	args := m.Called(ctx, filter, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.User), args.Int(1), args.Error(2)
}

type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) GetByID(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) GetActiveByRefreshToken(ctx context.Context, refreshToken string, now time.Time) (*models.Session, error) {
	args := m.Called(ctx, refreshToken, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionRepository) Rotate(ctx context.Context, sessionID, oldToken, newToken string, expiresAt, now time.Time) error {
	args := m.Called(ctx, sessionID, oldToken, newToken, expiresAt, now)
	return args.Error(0)
}

func (m *MockSessionRepository) Revoke(ctx context.Context, sessionID, userID string, now time.Time) error {
	args := m.Called(ctx, sessionID, userID, now)
	return args.Error(0)
}

func (m *MockSessionRepository) RevokeAll(ctx context.Context, userID, exceptSessionID string, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, exceptSessionID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) ListActive(ctx context.Context, userID string, now time.Time) ([]*models.Session, error) {
	args := m.Called(ctx, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

type MockCommunityRepository struct {
	mock.Mock
}

func (m *MockCommunityRepository) Create(ctx context.Context, community *models.Community) error {
	args := m.Called(ctx, community)
	return args.Error(0)
}

func (m *MockCommunityRepository) GetByID(ctx context.Context, communityID string) (*models.Community, error) {
	args := m.Called(ctx, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Community), args.Error(1)
}

func (m *MockCommunityRepository) List(ctx context.Context, query string, includeDeleted bool, p pagination.Params) ([]*models.Community, int, error) {
	args := m.Called(ctx, query, includeDeleted, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Community), args.Int(1), args.Error(2)
}

func (m *MockCommunityRepository) Update(ctx context.Context, community *models.Community) error {
	args := m.Called(ctx, community)
	return args.Error(0)
}

func (m *MockCommunityRepository) SoftDelete(ctx context.Context, community *models.Community) error {
	args := m.Called(ctx, community)
	return args.Error(0)
}

func (m *MockCommunityRepository) Restore(ctx context.Context, communityID string, now time.Time) error {
	args := m.Called(ctx, communityID, now)
	return args.Error(0)
}

type MockModeratorRepository struct {
	mock.Mock
}

func (m *MockModeratorRepository) Assign(ctx context.Context, moderator *models.CommunityModerator) error {
	args := m.Called(ctx, moderator)
	return args.Error(0)
}

func (m *MockModeratorRepository) Remove(ctx context.Context, communityID, userID string) error {
	args := m.Called(ctx, communityID, userID)
	return args.Error(0)
}

func (m *MockModeratorRepository) IsModerator(ctx context.Context, communityID, userID string) (bool, error) {
	args := m.Called(ctx, communityID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockModeratorRepository) ListByCommunity(ctx context.Context, communityID string) ([]*models.CommunityModerator, error) {
	args := m.Called(ctx, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CommunityModerator), args.Error(1)
}

type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, postID string) (*models.Post, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostRepository) List(ctx context.Context, filter repository.PostFilter, p pagination.Params) ([]*models.Post, int, error) {
	args := m.Called(ctx, filter, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Post), args.Int(1), args.Error(2)
}

func (m *MockPostRepository) Update(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) Publish(ctx context.Context, postID string, now time.Time) error {
	args := m.Called(ctx, postID, now)
	return args.Error(0)
}

func (m *MockPostRepository) SoftDelete(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *MockPostRepository) Restore(ctx context.Context, postID string, now time.Time) error {
	args := m.Called(ctx, postID, now)
	return args.Error(0)
}

type MockImageRepository struct {
	mock.Mock
}

func (m *MockImageRepository) Create(ctx context.Context, image *models.Image) error {
	args := m.Called(ctx, image)
	return args.Error(0)
}

func (m *MockImageRepository) GetByID(ctx context.Context, imageID string) (*models.Image, error) {
	args := m.Called(ctx, imageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *MockImageRepository) GetByPostID(ctx context.Context, postID string) ([]*models.Image, error) {
	args := m.Called(ctx, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Image), args.Error(1)
}

func (m *MockImageRepository) Delete(ctx context.Context, imageID string) error {
	args := m.Called(ctx, imageID)
	return args.Error(0)
}

type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, commentID string) (*models.Comment, error) {
	args := m.Called(ctx, commentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postID string, p pagination.Params) ([]*models.Comment, int, error) {
	args := m.Called(ctx, postID, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Comment), args.Int(1), args.Error(2)
}

func (m *MockCommentRepository) Update(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *MockCommentRepository) SoftDelete(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

type MockVoteRepository struct {
	mock.Mock
}

func (m *MockVoteRepository) Upsert(ctx context.Context, vote *models.Vote) (*models.Vote, error) {
	args := m.Called(ctx, vote)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vote), args.Error(1)
}

func (m *MockVoteRepository) Retract(ctx context.Context, userID, targetType, targetID string, now time.Time) error {
	args := m.Called(ctx, userID, targetType, targetID, now)
	return args.Error(0)
}

func (m *MockVoteRepository) Get(ctx context.Context, userID, targetType, targetID string) (*models.Vote, error) {
	args := m.Called(ctx, userID, targetType, targetID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vote), args.Error(1)
}

type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Create(ctx context.Context, subscription *models.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) Delete(ctx context.Context, userID, communityID string, now time.Time) error {
	args := m.Called(ctx, userID, communityID, now)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) ListByUser(ctx context.Context, userID string, p pagination.Params) ([]*models.Subscription, int, error) {
	args := m.Called(ctx, userID, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Subscription), args.Int(1), args.Error(2)
}

type MockBanRepository struct {
	mock.Mock
}

func (m *MockBanRepository) Create(ctx context.Context, ban *models.Ban) error {
	args := m.Called(ctx, ban)
	return args.Error(0)
}

func (m *MockBanRepository) GetByID(ctx context.Context, banID string) (*models.Ban, error) {
	args := m.Called(ctx, banID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ban), args.Error(1)
}

func (m *MockBanRepository) GetActive(ctx context.Context, communityID, userID string, now time.Time) (*models.Ban, error) {
	args := m.Called(ctx, communityID, userID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ban), args.Error(1)
}

func (m *MockBanRepository) Update(ctx context.Context, ban *models.Ban) error {
	args := m.Called(ctx, ban)
	return args.Error(0)
}

func (m *MockBanRepository) Lift(ctx context.Context, ban *models.Ban) error {
	args := m.Called(ctx, ban)
	return args.Error(0)
}

func (m *MockBanRepository) ListByCommunity(ctx context.Context, communityID string, filter repository.BanFilter, p pagination.Params) ([]*models.Ban, int, error) {
	args := m.Called(ctx, communityID, filter, p)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*models.Ban), args.Int(1), args.Error(2)
}

type MockTablesRepository struct {
	mock.Mock
}

func (m *MockTablesRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTablesRepository) CountTablesDB(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) UploadImage(ctx context.Context, postID string, file io.Reader, size int64, contentType, extension string) (string, string, error) {
	args := m.Called(ctx, postID, file, size, contentType, extension)
	return args.String(0), args.String(1), args.Error(2)
}

func (m *MockStorage) DeleteImage(ctx context.Context, objectName string) error {
	args := m.Called(ctx, objectName)
	return args.Error(0)
}

// recorder counts events instead of asserting calls, since most tests do
// not care about them.
type recorder struct {
	auth       []string
	moderation []string
}

func (r *recorder) AuthEvent(event string)         { r.auth = append(r.auth, event) }
func (r *recorder) ModerationAction(action string) { r.moderation = append(r.moderation, action) }

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time {
	return fixedNow
}

func stringPtr(s string) *string {
	return &s
}
