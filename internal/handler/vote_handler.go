package handlers

import (
	"net/http"

	"communityboard/internal/models"

	"github.com/gorilla/mux"
)

type VoteRequest struct {
	Value int `json:"value" validate:"oneof=-1 1"`
}

func (h *Handlers) VotePost(w http.ResponseWriter, r *http.Request) {
	h.castVote(w, r, models.TargetPost, mux.Vars(r)["postID"])
}

func (h *Handlers) RetractPostVote(w http.ResponseWriter, r *http.Request) {
	h.retractVote(w, r, models.TargetPost, mux.Vars(r)["postID"])
}

func (h *Handlers) VoteComment(w http.ResponseWriter, r *http.Request) {
	h.castVote(w, r, models.TargetComment, mux.Vars(r)["commentID"])
}

func (h *Handlers) RetractCommentVote(w http.ResponseWriter, r *http.Request) {
	h.retractVote(w, r, models.TargetComment, mux.Vars(r)["commentID"])
}

// castVote is idempotent per user and target: voting again replaces the value.
func (h *Handlers) castVote(w http.ResponseWriter, r *http.Request, targetType, targetID string) {
	var req VoteRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	vote, err := h.VoteService.Cast(r.Context(), actorFrom(r), targetType, targetID, req.Value)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, vote, http.StatusOK)
}

func (h *Handlers) retractVote(w http.ResponseWriter, r *http.Request, targetType, targetID string) {
	if err := h.VoteService.Retract(r.Context(), actorFrom(r), targetType, targetID); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeNoContent(w)
}
