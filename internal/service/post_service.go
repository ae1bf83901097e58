package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/lifecycle"
	"communityboard/internal/models"
	"communityboard/internal/pagination"
	"communityboard/internal/repository"
	"communityboard/internal/storage"

	"github.com/sirupsen/logrus"
)

type PostInput struct {
	CommunityID    string
	Title          string
	Content        string
	IdempotencyKey *string
	Publish        bool
}

type PostUpdate struct {
	Title   *string
	Content *string
}

type PostQuery struct {
	CommunityID string
	AuthorID    string
	Query       string
}

// ImageUpload is an attachment whose content type was already sniffed.
type ImageUpload struct {
	File        io.Reader
	Size        int64
	ContentType string
	Extension   string
}

type PostService interface {
	CreatePost(ctx context.Context, actor access.Actor, in PostInput) (*models.Post, error)
	GetPost(ctx context.Context, actor access.Actor, postID string) (*models.Post, error)
	ListPosts(ctx context.Context, actor access.Actor, query PostQuery, p pagination.Params) (pagination.Page[*models.Post], error)
	ListMyPosts(ctx context.Context, actor access.Actor, p pagination.Params) (pagination.Page[*models.Post], error)
	UpdatePost(ctx context.Context, actor access.Actor, postID string, update PostUpdate) (*models.Post, error)
	PublishPost(ctx context.Context, actor access.Actor, postID string) (*models.Post, error)
	DeletePost(ctx context.Context, actor access.Actor, postID string) error
	RestorePost(ctx context.Context, actor access.Actor, postID string) (*models.Post, error)
	AddImage(ctx context.Context, actor access.Actor, postID string, upload ImageUpload) (*models.Image, error)
	DeleteImage(ctx context.Context, actor access.Actor, postID, imageID string) error
}

type postService struct {
	postRepo      repository.PostRepository
	imageRepo     repository.ImageRepository
	communityRepo repository.CommunityRepository
	moderatorRepo repository.ModeratorRepository
	banRepo       repository.BanRepository
	storage       storage.Storage
	recorder      EventRecorder
	log           logrus.FieldLogger
	now           clock
}

func NewPostService(
	postRepo repository.PostRepository,
	imageRepo repository.ImageRepository,
	communityRepo repository.CommunityRepository,
	moderatorRepo repository.ModeratorRepository,
	banRepo repository.BanRepository,
	storage storage.Storage,
	recorder EventRecorder,
	log logrus.FieldLogger,
) PostService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &postService{
		postRepo:      postRepo,
		imageRepo:     imageRepo,
		communityRepo: communityRepo,
		moderatorRepo: moderatorRepo,
		banRepo:       banRepo,
		storage:       storage,
		recorder:      recorderOrNoop(recorder),
		log:           log,
		now:           utcNow,
	}
}

func (p *postService) CreatePost(ctx context.Context, actor access.Actor, in PostInput) (*models.Post, error) {
	if err := access.Require(actor, access.CapPost); err != nil {
		return nil, err
	}

	community, err := p.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if lifecycle.Deleted(community) {
		return nil, apperr.New(apperr.ErrNotFound, "community not found")
	}

	if err := ensureNotBanned(ctx, p.banRepo, community.CommunityID, actor.ID, p.now()); err != nil {
		return nil, err
	}

	if community.Restricted {
		scoped, err := withScope(ctx, p.moderatorRepo, actor, community.CommunityID)
		if err != nil {
			return nil, err
		}
		if !scoped.IsAdministrator() && !scoped.Moderates(community.CommunityID) {
			return nil, apperr.New(apperr.ErrDomainRule, "only moderators can post in this community")
		}
	}

	if in.IdempotencyKey != nil && strings.TrimSpace(*in.IdempotencyKey) == "" {
		in.IdempotencyKey = nil
	}

	post := &models.Post{
		CommunityID:    community.CommunityID,
		AuthorID:       actor.ID,
		IdempotencyKey: in.IdempotencyKey,
		Title:          strings.TrimSpace(in.Title),
		Content:        in.Content,
		Status:         models.PostStatusDraft,
		Images:         []models.Image{},
	}
	if in.Publish {
		post.Status = models.PostStatusPublished
	}

	if err := p.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// GetPost applies visibility: drafts are visible to their author and
// administrators, deleted posts to administrators and moderators of the
// community.
func (p *postService) GetPost(ctx context.Context, actor access.Actor, postID string) (*models.Post, error) {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	hidden := apperr.New(apperr.ErrNotFound, "post not found")

	if lifecycle.Deleted(post) {
		scoped, err := withScope(ctx, p.moderatorRepo, actor, post.CommunityID)
		if err != nil {
			return nil, err
		}
		if !scoped.IsAdministrator() && !scoped.Moderates(post.CommunityID) {
			return nil, hidden
		}
	}

	if !post.Published() && !actor.IsAdministrator() && (actor.IsGuest() || actor.ID != post.AuthorID) {
		return nil, hidden
	}

	if err := p.attachImages(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

func (p *postService) ListPosts(ctx context.Context, actor access.Actor, query PostQuery, params pagination.Params) (pagination.Page[*models.Post], error) {
	filter := repository.PostFilter{
		CommunityID: query.CommunityID,
		AuthorID:    query.AuthorID,
		Query:       query.Query,
		Status:      models.PostStatusPublished,
	}

	return p.list(ctx, filter, params)
}

// ListMyPosts lists the actor's own posts including drafts.
func (p *postService) ListMyPosts(ctx context.Context, actor access.Actor, params pagination.Params) (pagination.Page[*models.Post], error) {
	if actor.IsGuest() {
		return pagination.Page[*models.Post]{}, apperr.New(apperr.ErrUnauthorized, "authentication required")
	}

	return p.list(ctx, repository.PostFilter{AuthorID: actor.ID}, params)
}

func (p *postService) UpdatePost(ctx context.Context, actor access.Actor, postID string, update PostUpdate) (*models.Post, error) {
	post, err := p.livePost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if decision := access.Authorize(actor, post.Resource(), access.ActionUpdate); !decision.Allowed {
		return nil, decision.Err(post.Resource())
	}

	if update.Title != nil {
		post.Title = strings.TrimSpace(*update.Title)
	}
	if update.Content != nil {
		post.Content = *update.Content
	}

	if err := p.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}

	if err := p.attachImages(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (p *postService) PublishPost(ctx context.Context, actor access.Actor, postID string) (*models.Post, error) {
	post, err := p.livePost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if decision := access.Authorize(actor, post.Resource(), access.ActionPublish); !decision.Allowed {
		return nil, decision.Err(post.Resource())
	}

	if post.Published() {
		return nil, apperr.New(apperr.ErrConflict, "post is already published")
	}

	now := p.now()
	if err := p.postRepo.Publish(ctx, postID, now); err != nil {
		return nil, err
	}
	post.Status = models.PostStatusPublished
	post.UpdatedAt = now

	return post, nil
}

// DeletePost soft deletes the post. The author, moderators of the
// community and administrators may delete.
func (p *postService) DeletePost(ctx context.Context, actor access.Actor, postID string) error {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}

	scoped, err := withScope(ctx, p.moderatorRepo, actor, post.CommunityID)
	if err != nil {
		return err
	}

	decision := access.Authorize(scoped, post.Resource(), access.ActionDelete)
	if !decision.Allowed {
		return decision.Err(post.Resource())
	}

	if err := lifecycle.Posts.SoftDelete(post, actor.ID, p.now()); err != nil {
		return err
	}

	if err := p.postRepo.SoftDelete(ctx, post); err != nil {
		return err
	}

	if decision.Privileged() {
		p.recorder.ModerationAction("post_delete")
	}
	return nil
}

// RestorePost is reserved to moderators of the community and administrators.
func (p *postService) RestorePost(ctx context.Context, actor access.Actor, postID string) (*models.Post, error) {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	scoped, err := withScope(ctx, p.moderatorRepo, actor, post.CommunityID)
	if err != nil {
		return nil, err
	}

	if decision := access.Authorize(scoped, post.Resource(), access.ActionRestore); !decision.Allowed {
		return nil, decision.Err(post.Resource())
	}

	if err := lifecycle.Posts.Restore(post); err != nil {
		return nil, err
	}

	now := p.now()
	if err := p.postRepo.Restore(ctx, postID, now); err != nil {
		return nil, err
	}
	post.UpdatedAt = now

	p.recorder.ModerationAction("post_restore")

	if err := p.attachImages(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (p *postService) AddImage(ctx context.Context, actor access.Actor, postID string, upload ImageUpload) (*models.Image, error) {
	post, err := p.livePost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if decision := access.Authorize(actor, post.Resource(), access.ActionUpdate); !decision.Allowed {
		return nil, decision.Err(post.Resource())
	}

	objectName, imageURL, err := p.storage.UploadImage(ctx, postID, upload.File, upload.Size, upload.ContentType, upload.Extension)
	if err != nil {
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	image := &models.Image{
		PostID:     postID,
		ObjectName: objectName,
		ImageURL:   imageURL,
		CreatedAt:  p.now(),
	}

	if err := p.imageRepo.Create(ctx, image); err != nil {
		if delErr := p.storage.DeleteImage(ctx, objectName); delErr != nil {
			p.log.WithError(delErr).WithField("object", objectName).Warn("failed to remove orphaned image")
		}
		return nil, err
	}

	return image, nil
}

func (p *postService) DeleteImage(ctx context.Context, actor access.Actor, postID, imageID string) error {
	post, err := p.livePost(ctx, postID)
	if err != nil {
		return err
	}

	if decision := access.Authorize(actor, post.Resource(), access.ActionUpdate); !decision.Allowed {
		return decision.Err(post.Resource())
	}

	image, err := p.imageRepo.GetByID(ctx, imageID)
	if err != nil {
		return err
	}
	if image.PostID != postID {
		return apperr.New(apperr.ErrNotFound, "image not found")
	}

	if err := p.imageRepo.Delete(ctx, imageID); err != nil {
		return err
	}

	// the row is gone; a leftover object is only logged
	if err := p.storage.DeleteImage(ctx, image.ObjectName); err != nil {
		p.log.WithError(err).WithField("object", image.ObjectName).Warn("failed to delete image from storage")
	}

	return nil
}

func (p *postService) list(ctx context.Context, filter repository.PostFilter, params pagination.Params) (pagination.Page[*models.Post], error) {
	posts, total, err := p.postRepo.List(ctx, filter, params)
	if err != nil {
		return pagination.Page[*models.Post]{}, err
	}

	for _, post := range posts {
		if err := p.attachImages(ctx, post); err != nil {
			return pagination.Page[*models.Post]{}, err
		}
	}

	return pagination.NewPage(params, total, posts), nil
}

func (p *postService) livePost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := p.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if lifecycle.Deleted(post) {
		return nil, apperr.New(apperr.ErrNotFound, "post not found")
	}
	return post, nil
}

func (p *postService) attachImages(ctx context.Context, post *models.Post) error {
	images, err := p.imageRepo.GetByPostID(ctx, post.PostID)
	if err != nil {
		return err
	}

	post.Images = make([]models.Image, 0, len(images))
	for _, image := range images {
		post.Images = append(post.Images, *image)
	}
	return nil
}
