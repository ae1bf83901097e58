package handlers

import (
	"net/http"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/pagination"
	"communityboard/internal/repository"
	"communityboard/internal/service"

	"github.com/gorilla/mux"
)

type UpdateProfileRequest struct {
	Username    *string `json:"username" validate:"omitempty,min=3,max=32"`
	DisplayName *string `json:"displayName" validate:"omitempty,max=64"`
}

func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.Me(r.Context(), actorFrom(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, user, http.StatusOK)
}

func (h *Handlers) UpdateCurrentUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	user, err := h.UserService.UpdateProfile(r.Context(), actorFrom(r), service.ProfileUpdate{
		Username:    req.Username,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, user, http.StatusOK)
}

func (h *Handlers) GetMyPosts(w http.ResponseWriter, r *http.Request) {
	p, err := pagination.Parse(r.URL.Query(), repository.PostSort)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	page, err := h.PostService.ListMyPosts(r.Context(), actorFrom(r), p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, page, http.StatusOK)
}

func (h *Handlers) GetMySubscriptions(w http.ResponseWriter, r *http.Request) {
	p, err := pagination.Parse(r.URL.Query(), repository.SubscriptionSort)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	page, err := h.SubscriptionService.ListSubscriptions(r.Context(), actorFrom(r), p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, page, http.StatusOK)
}

// ListUsers accepts ?role= and ?q= filters.
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	p, err := pagination.Parse(query, repository.UserSort)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	filter := repository.UserFilter{Query: query.Get("q")}
	if raw := query.Get("role"); raw != "" {
		role, err := access.ParseRole(raw)
		if err != nil {
			h.respondError(w, r, apperr.Newf(apperr.ErrValidation, "unknown role %q", raw))
			return
		}
		filter.Role = role
	}

	page, err := h.UserService.ListUsers(r.Context(), actorFrom(r), filter, p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, page, http.StatusOK)
}

func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserService.GetUser(r.Context(), mux.Vars(r)["userID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	// forming the response
	writeSuccess(w, user.Public(), http.StatusOK)
}

func (h *Handlers) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	if err := h.UserService.Deactivate(r.Context(), actorFrom(r), mux.Vars(r)["userID"]); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeNoContent(w)
}
