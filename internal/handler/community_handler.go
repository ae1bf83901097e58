package handlers

import (
	"net/http"
	"strconv"

	"communityboard/internal/pagination"
	"communityboard/internal/repository"
	"communityboard/internal/service"

	"github.com/gorilla/mux"
)

type CreateCommunityRequest struct {
	Name        string `json:"name" validate:"required"`
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
	Restricted  bool   `json:"restricted"`
}

type UpdateCommunityRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Restricted  *bool   `json:"restricted"`
}

type AssignModeratorRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

func (h *Handlers) CreateCommunity(w http.ResponseWriter, r *http.Request) {
	var req CreateCommunityRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	community, err := h.CommunityService.Create(r.Context(), actorFrom(r), service.CommunityInput{
		Name:        req.Name,
		Title:       req.Title,
		Description: req.Description,
		Restricted:  req.Restricted,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, community, http.StatusCreated)
}

// ListCommunities accepts ?q= and, for administrators, ?with_deleted=true.
func (h *Handlers) ListCommunities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	p, err := pagination.Parse(query, repository.CommunitySort)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	withDeleted, _ := strconv.ParseBool(query.Get("with_deleted"))

	page, err := h.CommunityService.List(r.Context(), actorFrom(r), query.Get("q"), withDeleted, p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, page, http.StatusOK)
}

func (h *Handlers) GetCommunity(w http.ResponseWriter, r *http.Request) {
	community, err := h.CommunityService.Get(r.Context(), actorFrom(r), mux.Vars(r)["communityID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, community, http.StatusOK)
}

func (h *Handlers) UpdateCommunity(w http.ResponseWriter, r *http.Request) {
	var req UpdateCommunityRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	community, err := h.CommunityService.Update(r.Context(), actorFrom(r), mux.Vars(r)["communityID"], service.CommunityUpdate{
		Title:       req.Title,
		Description: req.Description,
		Restricted:  req.Restricted,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, community, http.StatusOK)
}

func (h *Handlers) DeleteCommunity(w http.ResponseWriter, r *http.Request) {
	if err := h.CommunityService.Delete(r.Context(), actorFrom(r), mux.Vars(r)["communityID"]); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeNoContent(w)
}

func (h *Handlers) RestoreCommunity(w http.ResponseWriter, r *http.Request) {
	community, err := h.CommunityService.Restore(r.Context(), actorFrom(r), mux.Vars(r)["communityID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, community, http.StatusOK)
}

func (h *Handlers) ListModerators(w http.ResponseWriter, r *http.Request) {
	moderators, err := h.CommunityService.Moderators(r.Context(), mux.Vars(r)["communityID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, moderators, http.StatusOK)
}

func (h *Handlers) AssignModerator(w http.ResponseWriter, r *http.Request) {
	var req AssignModeratorRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	moderator, err := h.CommunityService.AssignModerator(r.Context(), actorFrom(r), mux.Vars(r)["communityID"], req.UserID)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, moderator, http.StatusCreated)
}

func (h *Handlers) RemoveModerator(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.CommunityService.RemoveModerator(r.Context(), actorFrom(r), vars["communityID"], vars["userID"]); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeNoContent(w)
}

func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	subscription, err := h.SubscriptionService.Subscribe(r.Context(), actorFrom(r), mux.Vars(r)["communityID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, subscription, http.StatusCreated)
}

func (h *Handlers) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if err := h.SubscriptionService.Unsubscribe(r.Context(), actorFrom(r), mux.Vars(r)["communityID"]); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeNoContent(w)
}
