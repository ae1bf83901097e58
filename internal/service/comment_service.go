package service

import (
	"context"
	"strings"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/lifecycle"
	"communityboard/internal/models"
	"communityboard/internal/pagination"
	"communityboard/internal/repository"
)

// MaxReplyDepth is the deepest allowed reply; root comments have depth 0.
const MaxReplyDepth = 10

type CommentInput struct {
	Content  string
	ParentID *string
}

type CommentService interface {
	CreateComment(ctx context.Context, actor access.Actor, postID string, in CommentInput) (*models.Comment, error)
	ListComments(ctx context.Context, postID string, p pagination.Params) (pagination.Page[*models.Comment], error)
	UpdateComment(ctx context.Context, actor access.Actor, commentID, content string) (*models.Comment, error)
	DeleteComment(ctx context.Context, actor access.Actor, commentID string) error
}

type commentService struct {
	commentRepo   repository.CommentRepository
	postRepo      repository.PostRepository
	moderatorRepo repository.ModeratorRepository
	banRepo       repository.BanRepository
	recorder      EventRecorder
	now           clock
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, moderatorRepo repository.ModeratorRepository, banRepo repository.BanRepository, recorder EventRecorder) CommentService {
	return &commentService{
		commentRepo:   commentRepo,
		postRepo:      postRepo,
		moderatorRepo: moderatorRepo,
		banRepo:       banRepo,
		recorder:      recorderOrNoop(recorder),
		now:           utcNow,
	}
}

func (s *commentService) CreateComment(ctx context.Context, actor access.Actor, postID string, in CommentInput) (*models.Comment, error) {
	if err := access.Require(actor, access.CapComment); err != nil {
		return nil, err
	}

	post, err := s.visiblePost(ctx, postID)
	if err != nil {
		return nil, err
	}

	if err := ensureNotBanned(ctx, s.banRepo, post.CommunityID, actor.ID, s.now()); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:   post.PostID,
		AuthorID: actor.ID,
		Content:  strings.TrimSpace(in.Content),
	}

	if in.ParentID != nil && *in.ParentID != "" {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if lifecycle.Deleted(parent) {
			return nil, apperr.New(apperr.ErrNotFound, "parent comment not found")
		}
		if parent.PostID != post.PostID {
			return nil, apperr.New(apperr.ErrDomainRule, "parent comment belongs to another post")
		}

		comment.ParentID = &parent.CommentID
		comment.Depth = parent.Depth + 1
		if comment.Depth > MaxReplyDepth {
			return nil, apperr.Newf(apperr.ErrDomainRule, "replies cannot be nested deeper than %d levels", MaxReplyDepth)
		}
	}

	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// ListComments keeps deleted comments in the thread with masked content.
func (s *commentService) ListComments(ctx context.Context, postID string, p pagination.Params) (pagination.Page[*models.Comment], error) {
	if _, err := s.visiblePost(ctx, postID); err != nil {
		return pagination.Page[*models.Comment]{}, err
	}

	comments, total, err := s.commentRepo.ListByPost(ctx, postID, p)
	if err != nil {
		return pagination.Page[*models.Comment]{}, err
	}

	for _, comment := range comments {
		if lifecycle.Deleted(comment) {
			comment.MaskContent(lifecycle.Placeholder)
		}
	}

	return pagination.NewPage(p, total, comments), nil
}

func (s *commentService) UpdateComment(ctx context.Context, actor access.Actor, commentID, content string) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if lifecycle.Deleted(comment) {
		return nil, apperr.New(apperr.ErrNotFound, "comment not found")
	}

	// ownership does not depend on the community
	res := comment.Resource("")
	if decision := access.Authorize(actor, res, access.ActionUpdate); !decision.Allowed {
		return nil, decision.Err(res)
	}

	comment.Content = strings.TrimSpace(content)
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}

	return comment, nil
}

// DeleteComment is terminal: the content is replaced by the placeholder
// and there is no restore.
func (s *commentService) DeleteComment(ctx context.Context, actor access.Actor, commentID string) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}

	post, err := s.postRepo.GetByID(ctx, comment.PostID)
	if err != nil {
		return err
	}

	scoped, err := withScope(ctx, s.moderatorRepo, actor, post.CommunityID)
	if err != nil {
		return err
	}

	res := comment.Resource(post.CommunityID)
	decision := access.Authorize(scoped, res, access.ActionDelete)
	if !decision.Allowed {
		return decision.Err(res)
	}

	if err := lifecycle.Comments.SoftDelete(comment, actor.ID, s.now()); err != nil {
		return err
	}

	if err := s.commentRepo.SoftDelete(ctx, comment); err != nil {
		return err
	}

	if decision.Privileged() {
		s.recorder.ModerationAction("comment_delete")
	}
	return nil
}

// visiblePost loads a published post that has not been deleted.
func (s *commentService) visiblePost(ctx context.Context, postID string) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if lifecycle.Deleted(post) || !post.Published() {
		return nil, apperr.New(apperr.ErrNotFound, "post not found")
	}
	return post, nil
}
