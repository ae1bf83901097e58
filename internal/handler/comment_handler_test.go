package handlers

import (
	"net/http"
	"testing"

	"communityboard/internal/apperr"
	"communityboard/internal/models"
	"communityboard/internal/pagination"
	"communityboard/internal/repository"
	"communityboard/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestCommentRoutes(t *testing.T) {
	t.Run("reply", func(t *testing.T) {
		f := newFixture(t)
		parent := "8c2e5a7b-1d3f-4a6c-9e8b-2f4a6c8e0d11"
		f.comments.On("CreateComment", mock.Anything, member, "3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90", service.CommentInput{Content: "agreed", ParentID: &parent}).
			Return(&models.Comment{CommentID: "8c2e5a7b-1d3f-4a6c-9e8b-2f4a6c8e0d12", ParentID: &parent, Depth: 1}, nil)

		rr := f.do(http.MethodPost, "/api/posts/3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90/comments", jsonBody(t, CreateCommentRequest{Content: "agreed", ParentID: &parent}), memberToken)

		assert.Equal(t, http.StatusCreated, rr.Code)
	})

	t.Run("too deep", func(t *testing.T) {
		f := newFixture(t)
		f.comments.On("CreateComment", mock.Anything, member, "3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90", mock.Anything).
			Return(nil, apperr.New(apperr.ErrDomainRule, "maximum reply depth exceeded"))

		rr := f.do(http.MethodPost, "/api/posts/3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90/comments", jsonBody(t, CreateCommentRequest{Content: "deeper"}), memberToken)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "domain_rule_violation", decodeError(t, rr).Code)
	})

	t.Run("empty content", func(t *testing.T) {
		f := newFixture(t)

		rr := f.do(http.MethodPost, "/api/posts/3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90/comments", jsonBody(t, CreateCommentRequest{}), memberToken)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("list is public", func(t *testing.T) {
		f := newFixture(t)
		p := pagination.New(1, 20, "", "", repository.CommentSort)
		f.comments.On("ListComments", mock.Anything, "3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90", p).Return(pagination.NewPage[*models.Comment](p, 0, nil), nil)

		rr := f.do(http.MethodGet, "/api/posts/3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90/comments", nil, "")

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("update and delete", func(t *testing.T) {
		f := newFixture(t)
		f.comments.On("UpdateComment", mock.Anything, member, "8c2e5a7b-1d3f-4a6c-9e8b-2f4a6c8e0d11", "edited").Return(&models.Comment{CommentID: "8c2e5a7b-1d3f-4a6c-9e8b-2f4a6c8e0d11", Content: "edited"}, nil)
		f.comments.On("DeleteComment", mock.Anything, member, "8c2e5a7b-1d3f-4a6c-9e8b-2f4a6c8e0d11").Return(nil)

		assert.Equal(t, http.StatusOK, f.do(http.MethodPut, "/api/comments/8c2e5a7b-1d3f-4a6c-9e8b-2f4a6c8e0d11", jsonBody(t, UpdateCommentRequest{Content: "edited"}), memberToken).Code)
		assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/comments/8c2e5a7b-1d3f-4a6c-9e8b-2f4a6c8e0d11", nil, memberToken).Code)
	})
}

func TestVoteRoutes(t *testing.T) {
	t.Run("upvote post", func(t *testing.T) {
		f := newFixture(t)
		f.votes.On("Cast", mock.Anything, member, models.TargetPost, "3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90", 1).
			Return(&models.Vote{VoteID: "v-1", TargetType: models.TargetPost, TargetID: "3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90", Value: 1}, nil)

		rr := f.do(http.MethodPut, "/api/posts/3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90/vote", jsonBody(t, VoteRequest{Value: 1}), memberToken)

		assert.Equal(t, http.StatusOK, rr.Code)
		f.votes.AssertExpectations(t)
	})

	t.Run("downvote comment", func(t *testing.T) {
		f := newFixture(t)
		f.votes.On("Cast", mock.Anything, member, models.TargetComment, "8c2e5a7b-1d3f-4a6c-9e8b-2f4a6c8e0d11", -1).
			Return(&models.Vote{VoteID: "v-2", Value: -1}, nil)

		rr := f.do(http.MethodPut, "/api/comments/8c2e5a7b-1d3f-4a6c-9e8b-2f4a6c8e0d11/vote", jsonBody(t, VoteRequest{Value: -1}), memberToken)

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("out of range", func(t *testing.T) {
		f := newFixture(t)

		rr := f.do(http.MethodPut, "/api/posts/3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90/vote", jsonBody(t, VoteRequest{Value: 5}), memberToken)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "value must be one of: -1 1", decodeError(t, rr).Error)
		f.votes.AssertNotCalled(t, "Cast", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("retract", func(t *testing.T) {
		f := newFixture(t)
		f.votes.On("Retract", mock.Anything, member, models.TargetComment, "8c2e5a7b-1d3f-4a6c-9e8b-2f4a6c8e0d11").Return(nil)
		f.votes.On("Retract", mock.Anything, member, models.TargetPost, "3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90").
			Return(apperr.New(apperr.ErrNotFound, "vote not found"))

		assert.Equal(t, http.StatusNoContent, f.do(http.MethodDelete, "/api/comments/8c2e5a7b-1d3f-4a6c-9e8b-2f4a6c8e0d11/vote", nil, memberToken).Code)
		assert.Equal(t, http.StatusNotFound, f.do(http.MethodDelete, "/api/posts/3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90/vote", nil, memberToken).Code)
	})

	t.Run("guest cannot vote", func(t *testing.T) {
		f := newFixture(t)

		rr := f.do(http.MethodPut, "/api/posts/3f9e2c1a-7b4d-4e8f-9a2b-1c5d6e7f8a90/vote", jsonBody(t, VoteRequest{Value: 1}), "")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
