package models

import (
	"time"

	"communityboard/internal/access"
)

const (
	UserStatusActive      = "active"
	UserStatusDeactivated = "deactivated"

	PostStatusDraft     = "draft"
	PostStatusPublished = "published"

	TargetPost    = "post"
	TargetComment = "comment"
)

type User struct {
	UserID         string      `json:"userId" db:"user_id"`
	Role           access.Role `json:"role" db:"role"`
	Email          string      `json:"email" db:"email"`
	Username       string      `json:"username" db:"username"`
	DisplayName    string      `json:"displayName" db:"display_name"`
	PasswordHash   string      `json:"-" db:"password_hash"`
	Status         string      `json:"status" db:"status"`
	FailedAttempts int         `json:"-" db:"failed_attempts"`
	LockedUntil    *time.Time  `json:"-" db:"locked_until"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
}

// PublicUser is the profile shown to other users.
type PublicUser struct {
	UserID      string      `json:"userId"`
	Role        access.Role `json:"role"`
	Username    string      `json:"username"`
	DisplayName string      `json:"displayName"`
	CreatedAt   time.Time   `json:"createdAt"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		UserID:      u.UserID,
		Role:        u.Role,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func (u *User) Active() bool {
	return u.Status == UserStatusActive
}

// Locked reports whether the account is locked at the given instant.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

type Session struct {
	SessionID    string     `json:"sessionId" db:"session_id"`
	UserID       string     `json:"userId" db:"user_id"`
	RefreshToken string     `json:"-" db:"refresh_token"`
	UserAgent    string     `json:"userAgent" db:"user_agent"`
	IPAddress    string     `json:"ipAddress" db:"ip_address"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	LastUsedAt   time.Time  `json:"lastUsedAt" db:"last_used_at"`
	ExpiresAt    time.Time  `json:"expiresAt" db:"expires_at"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty" db:"revoked_at"`
}

func (s *Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && s.ExpiresAt.After(now)
}

type Community struct {
	CommunityID string     `json:"communityId" db:"community_id"`
	OwnerID     string     `json:"ownerId" db:"owner_id"`
	Name        string     `json:"name" db:"name"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Restricted  bool       `json:"restricted" db:"restricted"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
	DeletedBy   *string    `json:"-" db:"deleted_by"`
}

func (c *Community) Resource() access.Resource {
	return access.Resource{Kind: "community", ID: c.CommunityID, OwnerID: c.OwnerID}
}

type CommunityModerator struct {
	CommunityID string    `json:"communityId" db:"community_id"`
	UserID      string    `json:"userId" db:"user_id"`
	AssignedBy  string    `json:"assignedBy" db:"assigned_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

type Post struct {
	PostID         string     `json:"postId" db:"post_id"`
	CommunityID    string     `json:"communityId" db:"community_id"`
	AuthorID       string     `json:"authorId" db:"author_id"`
	IdempotencyKey *string    `json:"idempotencyKey,omitempty" db:"idempotency_key"`
	Title          string     `json:"title" db:"title"`
	Content        string     `json:"content" db:"content"`
	Status         string     `json:"status" db:"status"`
	Upvotes        int        `json:"upvotes" db:"upvotes"`
	Downvotes      int        `json:"downvotes" db:"downvotes"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt      *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
	DeletedBy      *string    `json:"-" db:"deleted_by"`
	Images         []Image    `json:"images" db:"-"`
}

func (p *Post) Resource() access.Resource {
	return access.Resource{Kind: "post", ID: p.PostID, OwnerID: p.AuthorID, ScopeID: p.CommunityID}
}

func (p *Post) Published() bool {
	return p.Status == PostStatusPublished
}

type Image struct {
	ImageID    string    `json:"imageId" db:"image_id"`
	PostID     string    `json:"postId" db:"post_id"`
	ObjectName string    `json:"-" db:"object_name"`
	ImageURL   string    `json:"imageUrl" db:"image_url"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

type Comment struct {
	CommentID string     `json:"commentId" db:"comment_id"`
	PostID    string     `json:"postId" db:"post_id"`
	AuthorID  string     `json:"authorId" db:"author_id"`
	ParentID  *string    `json:"parentId,omitempty" db:"parent_id"`
	Depth     int        `json:"depth" db:"depth"`
	Content   string     `json:"content" db:"content"`
	Upvotes   int        `json:"upvotes" db:"upvotes"`
	Downvotes int        `json:"downvotes" db:"downvotes"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
	DeletedBy *string    `json:"-" db:"deleted_by"`
}

// Resource needs the enclosing community, which comments do not store.
func (c *Comment) Resource(communityID string) access.Resource {
	return access.Resource{Kind: "comment", ID: c.CommentID, OwnerID: c.AuthorID, ScopeID: communityID}
}

type Vote struct {
	VoteID     string     `json:"voteId" db:"vote_id"`
	UserID     string     `json:"userId" db:"user_id"`
	TargetType string     `json:"targetType" db:"target_type"`
	TargetID   string     `json:"targetId" db:"target_id"`
	Value      int        `json:"value" db:"value"`
	CreatedAt  time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time  `json:"updatedAt" db:"updated_at"`
	DeletedAt  *time.Time `json:"-" db:"deleted_at"`
}

type Subscription struct {
	SubscriptionID string     `json:"subscriptionId" db:"subscription_id"`
	UserID         string     `json:"userId" db:"user_id"`
	CommunityID    string     `json:"communityId" db:"community_id"`
	CreatedAt      time.Time  `json:"createdAt" db:"created_at"`
	DeletedAt      *time.Time `json:"-" db:"deleted_at"`
}

type Ban struct {
	BanID       string     `json:"banId" db:"ban_id"`
	CommunityID string     `json:"communityId" db:"community_id"`
	UserID      string     `json:"userId" db:"user_id"`
	IssuedBy    string     `json:"issuedBy" db:"issued_by"`
	Category    string     `json:"category" db:"category"`
	Reason      string     `json:"reason" db:"reason"`
	ExpiresAt   *time.Time `json:"expiresAt,omitempty" db:"expires_at"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time  `json:"updatedAt" db:"updated_at"`
	UpdatedBy   *string    `json:"updatedBy,omitempty" db:"updated_by"`
	LiftedAt    *time.Time `json:"liftedAt,omitempty" db:"lifted_at"`
	LiftedBy    *string    `json:"liftedBy,omitempty" db:"lifted_by"`
}

// Active reports whether the ban is in force at the given instant.
func (b *Ban) Active(now time.Time) bool {
	if b.LiftedAt != nil {
		return false
	}
	return b.ExpiresAt == nil || b.ExpiresAt.After(now)
}

// Resource treats the issuing moderator as the owner of the record.
func (b *Ban) Resource() access.Resource {
	return access.Resource{Kind: "ban", ID: b.BanID, OwnerID: b.IssuedBy, ScopeID: b.CommunityID}
}
