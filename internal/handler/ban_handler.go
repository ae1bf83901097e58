package handlers

import (
	"net/http"
	"strconv"
	"time"

	"communityboard/internal/pagination"
	"communityboard/internal/repository"
	"communityboard/internal/service"

	"github.com/gorilla/mux"
)

type IssueBanRequest struct {
	UserID    string     `json:"userId" validate:"required,uuid"`
	Category  string     `json:"category" validate:"required"`
	Reason    string     `json:"reason" validate:"max=1000"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type UpdateBanRequest struct {
	Category  *string    `json:"category"`
	Reason    *string    `json:"reason" validate:"omitempty,max=1000"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (h *Handlers) IssueBan(w http.ResponseWriter, r *http.Request) {
	var req IssueBanRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	ban, err := h.BanService.Issue(r.Context(), actorFrom(r), mux.Vars(r)["communityID"], service.BanInput{
		UserID:    req.UserID,
		Category:  req.Category,
		Reason:    req.Reason,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, ban, http.StatusCreated)
}

// ListBans returns only bans in force when ?active=true.
func (h *Handlers) ListBans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	p, err := pagination.Parse(query, repository.BanSort)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	activeOnly, _ := strconv.ParseBool(query.Get("active"))

	page, err := h.BanService.List(r.Context(), actorFrom(r), mux.Vars(r)["communityID"], activeOnly, p)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, page, http.StatusOK)
}

func (h *Handlers) GetBan(w http.ResponseWriter, r *http.Request) {
	ban, err := h.BanService.Get(r.Context(), actorFrom(r), mux.Vars(r)["banID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, ban, http.StatusOK)
}

func (h *Handlers) UpdateBan(w http.ResponseWriter, r *http.Request) {
	var req UpdateBanRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	ban, err := h.BanService.Update(r.Context(), actorFrom(r), mux.Vars(r)["banID"], service.BanUpdate{
		Category:  req.Category,
		Reason:    req.Reason,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, ban, http.StatusOK)
}

// LiftBan keeps the record and marks it lifted.
func (h *Handlers) LiftBan(w http.ResponseWriter, r *http.Request) {
	ban, err := h.BanService.Lift(r.Context(), actorFrom(r), mux.Vars(r)["banID"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, ban, http.StatusOK)
}
