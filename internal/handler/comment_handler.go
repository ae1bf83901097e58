package handlers

import (
	"net/http"

	"communityboard/internal/pagination"
	"communityboard/internal/repository"
	"communityboard/internal/service"

	"github.com/gorilla/mux"
)

type CreateCommentRequest struct {
	Content  string  `json:"content" validate:"required,max=10000"`
	ParentID *string `json:"parentId" validate:"omitempty,uuid"`
}

type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// GetComments returns the thread of a post. Deleted comments keep their
// place with masked content.
func (h *Handlers) GetComments(w http.ResponseWriter, r *http.Request) {
	p, err := pagination.Parse(r.URL.Query(), repository.CommentSort)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	page, err := h.CommentService.ListComments(r.Context(), mux.Vars(r)["postID"], p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, page, http.StatusOK)
}

func (h *Handlers) CreateComment(w http.ResponseWriter, r *http.Request) {
	var req CreateCommentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	comment, err := h.CommentService.CreateComment(r.Context(), actorFrom(r), mux.Vars(r)["postID"], service.CommentInput{
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, comment, http.StatusCreated)
}

func (h *Handlers) UpdateComment(w http.ResponseWriter, r *http.Request) {
	var req UpdateCommentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	comment, err := h.CommentService.UpdateComment(r.Context(), actorFrom(r), mux.Vars(r)["commentID"], req.Content)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, comment, http.StatusOK)
}

func (h *Handlers) DeleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.CommentService.DeleteComment(r.Context(), actorFrom(r), mux.Vars(r)["commentID"]); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeNoContent(w)
}
