package repository

import (
	"context"
	"time"

	"communityboard/internal/access"
	"communityboard/internal/models"
	"communityboard/internal/pagination"

	"github.com/jmoiron/sqlx"
)

type UserFilter struct {
	Role  access.Role
	Query string
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User, password string) error
	GetUserByID(ctx context.Context, userID string) (*models.User, error)
	GetUserByEmail(ctx context.Context, role access.Role, email string) (*models.User, error)
	VerifyPassword(user *models.User, password string) error
	RecordLoginFailure(ctx context.Context, userID string, policy LockoutPolicy, now time.Time) (*models.User, error)
	ResetLoginFailures(ctx context.Context, userID string, now time.Time) error
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID, password string, now time.Time) error
	SetStatus(ctx context.Context, userID, status string, now time.Time) error
	List(ctx context.Context, filter UserFilter, p pagination.Params) ([]*models.User, int, error)
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, sessionID string) (*models.Session, error)
	GetActiveByRefreshToken(ctx context.Context, refreshToken string, now time.Time) (*models.Session, error)
	Rotate(ctx context.Context, sessionID, oldToken, newToken string, expiresAt, now time.Time) error
	Revoke(ctx context.Context, sessionID, userID string, now time.Time) error
	RevokeAll(ctx context.Context, userID, exceptSessionID string, now time.Time) (int64, error)
	ListActive(ctx context.Context, userID string, now time.Time) ([]*models.Session, error)
}

type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, communityID string) (*models.Community, error)
	List(ctx context.Context, query string, includeDeleted bool, p pagination.Params) ([]*models.Community, int, error)
	Update(ctx context.Context, community *models.Community) error
	SoftDelete(ctx context.Context, community *models.Community) error
	Restore(ctx context.Context, communityID string, now time.Time) error
}

type ModeratorRepository interface {
	Assign(ctx context.Context, moderator *models.CommunityModerator) error
	Remove(ctx context.Context, communityID, userID string) error
	IsModerator(ctx context.Context, communityID, userID string) (bool, error)
	ListByCommunity(ctx context.Context, communityID string) ([]*models.CommunityModerator, error)
}

type PostFilter struct {
	CommunityID    string
	AuthorID       string
	Query          string
	Status         string
	IncludeDeleted bool
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, postID string) (*models.Post, error)
	List(ctx context.Context, filter PostFilter, p pagination.Params) ([]*models.Post, int, error)
	Update(ctx context.Context, post *models.Post) error
	Publish(ctx context.Context, postID string, now time.Time) error
	SoftDelete(ctx context.Context, post *models.Post) error
	Restore(ctx context.Context, postID string, now time.Time) error
}

type ImageRepository interface {
	Create(ctx context.Context, image *models.Image) error
	GetByID(ctx context.Context, imageID string) (*models.Image, error)
	GetByPostID(ctx context.Context, postID string) ([]*models.Image, error)
	Delete(ctx context.Context, imageID string) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, commentID string) (*models.Comment, error)
	ListByPost(ctx context.Context, postID string, p pagination.Params) ([]*models.Comment, int, error)
	Update(ctx context.Context, comment *models.Comment) error
	SoftDelete(ctx context.Context, comment *models.Comment) error
}

type VoteRepository interface {
	Upsert(ctx context.Context, vote *models.Vote) (*models.Vote, error)
	Retract(ctx context.Context, userID, targetType, targetID string, now time.Time) error
	Get(ctx context.Context, userID, targetType, targetID string) (*models.Vote, error)
}

type SubscriptionRepository interface {
	Create(ctx context.Context, subscription *models.Subscription) error
	Delete(ctx context.Context, userID, communityID string, now time.Time) error
	ListByUser(ctx context.Context, userID string, p pagination.Params) ([]*models.Subscription, int, error)
}

type BanFilter struct {
	ActiveOnly bool
	Now        time.Time
}

type BanRepository interface {
	Create(ctx context.Context, ban *models.Ban) error
	GetByID(ctx context.Context, banID string) (*models.Ban, error)
	GetActive(ctx context.Context, communityID, userID string, now time.Time) (*models.Ban, error)
	Update(ctx context.Context, ban *models.Ban) error
	Lift(ctx context.Context, ban *models.Ban) error
	ListByCommunity(ctx context.Context, communityID string, filter BanFilter, p pagination.Params) ([]*models.Ban, int, error)
}

type TablesRepository interface {
	Ping(ctx context.Context) error
	CountTablesDB(ctx context.Context) (int, error)
}

type Repository struct {
	User         UserRepository
	Session      SessionRepository
	Community    CommunityRepository
	Moderator    ModeratorRepository
	Post         PostRepository
	Image        ImageRepository
	Comment      CommentRepository
	Vote         VoteRepository
	Subscription SubscriptionRepository
	Ban          BanRepository
	Tables       TablesRepository
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{
		User:         NewUserRepository(db),
		Session:      NewSessionRepository(db),
		Community:    NewCommunityRepository(db),
		Moderator:    NewModeratorRepository(db),
		Post:         NewPostRepository(db),
		Image:        NewImageRepository(db),
		Comment:      NewCommentRepository(db),
		Vote:         NewVoteRepository(db),
		Subscription: NewSubscriptionRepository(db),
		Ban:          NewBanRepository(db),
		Tables:       NewTablesRepository(db),
	}
}
