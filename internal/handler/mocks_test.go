package handlers

import (
	"context"

	"communityboard/internal/access"
	"communityboard/internal/models"
	"communityboard/internal/pagination"
	"communityboard/internal/repository"
	"communityboard/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, in service.RegisterInput, client service.Client) (*service.Authorized, error) {
	args := m.Called(ctx, in, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Authorized), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, role access.Role, email, password string, client service.Client) (*service.Authorized, error) {
	args := m.Called(ctx, role, email, password, client)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Authorized), args.Error(1)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TokenPair), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, actor access.Actor) error {
	args := m.Called(ctx, actor)
	return args.Error(0)
}

func (m *MockAuthService) Authenticate(ctx context.Context, accessToken string) (access.Actor, error) {
	args := m.Called(ctx, accessToken)
	return args.Get(0).(access.Actor), args.Error(1)
}

func (m *MockAuthService) Sessions(ctx context.Context, actor access.Actor) ([]*models.Session, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Session), args.Error(1)
}

func (m *MockAuthService) RevokeSession(ctx context.Context, actor access.Actor, sessionID string) error {
	args := m.Called(ctx, actor, sessionID)
	return args.Error(0)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, actor access.Actor, oldPassword, newPassword string) error {
	args := m.Called(ctx, actor, oldPassword, newPassword)
	return args.Error(0)
}

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Me(ctx context.Context, actor access.Actor) (*models.User, error) {
	args := m.Called(ctx, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) UpdateProfile(ctx context.Context, actor access.Actor, update service.ProfileUpdate) (*models.User, error) {
	args := m.Called(ctx, actor, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, actor access.Actor, filter repository.UserFilter, p pagination.Params) (pagination.Page[*models.User], error) {
	args := m.Called(ctx, actor, filter, p)
	return args.Get(0).(pagination.Page[*models.User]), args.Error(1)
}

func (m *MockUserService) Deactivate(ctx context.Context, actor access.Actor, userID string) error {
	args := m.Called(ctx, actor, userID)
	return args.Error(0)
}

type MockCommunityService struct {
	mock.Mock
}

func (m *MockCommunityService) Create(ctx context.Context, actor access.Actor, in service.CommunityInput) (*models.Community, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Community), args.Error(1)
}

func (m *MockCommunityService) Get(ctx context.Context, actor access.Actor, communityID string) (*models.Community, error) {
	args := m.Called(ctx, actor, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Community), args.Error(1)
}

func (m *MockCommunityService) List(ctx context.Context, actor access.Actor, query string, withDeleted bool, p pagination.Params) (pagination.Page[*models.Community], error) {
	args := m.Called(ctx, actor, query, withDeleted, p)
	return args.Get(0).(pagination.Page[*models.Community]), args.Error(1)
}

func (m *MockCommunityService) Update(ctx context.Context, actor access.Actor, communityID string, update service.CommunityUpdate) (*models.Community, error) {
	args := m.Called(ctx, actor, communityID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Community), args.Error(1)
}

func (m *MockCommunityService) Delete(ctx context.Context, actor access.Actor, communityID string) error {
	args := m.Called(ctx, actor, communityID)
	return args.Error(0)
}

func (m *MockCommunityService) Restore(ctx context.Context, actor access.Actor, communityID string) (*models.Community, error) {
	args := m.Called(ctx, actor, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Community), args.Error(1)
}

func (m *MockCommunityService) Moderators(ctx context.Context, communityID string) ([]*models.CommunityModerator, error) {
	args := m.Called(ctx, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CommunityModerator), args.Error(1)
}

func (m *MockCommunityService) AssignModerator(ctx context.Context, actor access.Actor, communityID, userID string) (*models.CommunityModerator, error) {
	args := m.Called(ctx, actor, communityID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommunityModerator), args.Error(1)
}

func (m *MockCommunityService) RemoveModerator(ctx context.Context, actor access.Actor, communityID, userID string) error {
	args := m.Called(ctx, actor, communityID, userID)
	return args.Error(0)
}

type MockPostService struct {
	mock.Mock
}

func (m *MockPostService) CreatePost(ctx context.Context, actor access.Actor, in service.PostInput) (*models.Post, error) {
	args := m.Called(ctx, actor, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) GetPost(ctx context.Context, actor access.Actor, postID string) (*models.Post, error) {
	args := m.Called(ctx, actor, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) ListPosts(ctx context.Context, actor access.Actor, query service.PostQuery, p pagination.Params) (pagination.Page[*models.Post], error) {
	args := m.Called(ctx, actor, query, p)
	return args.Get(0).(pagination.Page[*models.Post]), args.Error(1)
}

func (m *MockPostService) ListMyPosts(ctx context.Context, actor access.Actor, p pagination.Params) (pagination.Page[*models.Post], error) {
	args := m.Called(ctx, actor, p)
	return args.Get(0).(pagination.Page[*models.Post]), args.Error(1)
}

func (m *MockPostService) UpdatePost(ctx context.Context, actor access.Actor, postID string, update service.PostUpdate) (*models.Post, error) {
	args := m.Called(ctx, actor, postID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) PublishPost(ctx context.Context, actor access.Actor, postID string) (*models.Post, error) {
	args := m.Called(ctx, actor, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) DeletePost(ctx context.Context, actor access.Actor, postID string) error {
	args := m.Called(ctx, actor, postID)
	return args.Error(0)
}

func (m *MockPostService) RestorePost(ctx context.Context, actor access.Actor, postID string) (*models.Post, error) {
	args := m.Called(ctx, actor, postID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *MockPostService) AddImage(ctx context.Context, actor access.Actor, postID string, upload service.ImageUpload) (*models.Image, error) {
	args := m.Called(ctx, actor, postID, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Image), args.Error(1)
}

func (m *MockPostService) DeleteImage(ctx context.Context, actor access.Actor, postID, imageID string) error {
	args := m.Called(ctx, actor, postID, imageID)
	return args.Error(0)
}

type MockCommentService struct {
	mock.Mock
}

func (m *MockCommentService) CreateComment(ctx context.Context, actor access.Actor, postID string, in service.CommentInput) (*models.Comment, error) {
	args := m.Called(ctx, actor, postID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentService) ListComments(ctx context.Context, postID string, p pagination.Params) (pagination.Page[*models.Comment], error) {
	args := m.Called(ctx, postID, p)
	return args.Get(0).(pagination.Page[*models.Comment]), args.Error(1)
}

func (m *MockCommentService) UpdateComment(ctx context.Context, actor access.Actor, commentID, content string) (*models.Comment, error) {
	args := m.Called(ctx, actor, commentID, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *MockCommentService) DeleteComment(ctx context.Context, actor access.Actor, commentID string) error {
	args := m.Called(ctx, actor, commentID)
	return args.Error(0)
}

type MockVoteService struct {
	mock.Mock
}

func (m *MockVoteService) Cast(ctx context.Context, actor access.Actor, targetType, targetID string, value int) (*models.Vote, error) {
	args := m.Called(ctx, actor, targetType, targetID, value)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Vote), args.Error(1)
}

func (m *MockVoteService) Retract(ctx context.Context, actor access.Actor, targetType, targetID string) error {
	args := m.Called(ctx, actor, targetType, targetID)
	return args.Error(0)
}

type MockSubscriptionService struct {
	mock.Mock
}

func (m *MockSubscriptionService) Subscribe(ctx context.Context, actor access.Actor, communityID string) (*models.Subscription, error) {
	args := m.Called(ctx, actor, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func (m *MockSubscriptionService) Unsubscribe(ctx context.Context, actor access.Actor, communityID string) error {
	args := m.Called(ctx, actor, communityID)
	return args.Error(0)
}

func (m *MockSubscriptionService) ListSubscriptions(ctx context.Context, actor access.Actor, p pagination.Params) (pagination.Page[*models.Subscription], error) {
	args := m.Called(ctx, actor, p)
	return args.Get(0).(pagination.Page[*models.Subscription]), args.Error(1)
}

type MockBanService struct {
	mock.Mock
}

func (m *MockBanService) Issue(ctx context.Context, actor access.Actor, communityID string, in service.BanInput) (*models.Ban, error) {
	args := m.Called(ctx, actor, communityID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ban), args.Error(1)
}

func (m *MockBanService) Get(ctx context.Context, actor access.Actor, banID string) (*models.Ban, error) {
	args := m.Called(ctx, actor, banID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ban), args.Error(1)
}

func (m *MockBanService) Update(ctx context.Context, actor access.Actor, banID string, update service.BanUpdate) (*models.Ban, error) {
	args := m.Called(ctx, actor, banID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ban), args.Error(1)
}

func (m *MockBanService) Lift(ctx context.Context, actor access.Actor, banID string) (*models.Ban, error) {
	args := m.Called(ctx, actor, banID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Ban), args.Error(1)
}

func (m *MockBanService) List(ctx context.Context, actor access.Actor, communityID string, activeOnly bool, p pagination.Params) (pagination.Page[*models.Ban], error) {
	args := m.Called(ctx, actor, communityID, activeOnly, p)
	return args.Get(0).(pagination.Page[*models.Ban]), args.Error(1)
}

type MockTablesService struct {
	mock.Mock
}

func (m *MockTablesService) Check(ctx context.Context) service.Health {
	args := m.Called(ctx)
	return args.Get(0).(service.Health)
}
