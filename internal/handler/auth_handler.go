package handlers

import (
	"net/http"

	"communityboard/internal/access"
	"communityboard/internal/apperr"
	"communityboard/internal/service"

	"github.com/gorilla/mux"
)

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Username    string `json:"username" validate:"required,min=3,max=32"`
	Password    string `json:"password" validate:"required"`
	Role        string `json:"role" validate:"required"`
	DisplayName string `json:"displayName" validate:"max=64"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	role, err := access.ParseRole(req.Role)
	if err != nil {
		h.respondError(w, r, apperr.Newf(apperr.ErrValidation, "unknown role %q", req.Role))
		return
	}

	// registering the user opens the first session
	result, err := h.AuthService.Register(r.Context(), service.RegisterInput{
		Role:        role,
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	}, clientFrom(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, result, http.StatusCreated)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	// members are the default identity
	role := access.RoleMember
	if req.Role != "" {
		parsed, err := access.ParseRole(req.Role)
		if err != nil {
			h.respondError(w, r, apperr.New(apperr.ErrInvalidCredentials, "invalid credentials"))
			return
		}
		role = parsed
	}

	result, err := h.AuthService.Login(r.Context(), role, req.Email, req.Password, clientFrom(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, result, http.StatusOK)
}

func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	tokens, err := h.AuthService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, tokens, http.StatusOK)
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.AuthService.Logout(r.Context(), actorFrom(r)); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeNoContent(w)
}

func (h *Handlers) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.AuthService.Sessions(r.Context(), actorFrom(r))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	writeSuccess(w, sessions, http.StatusOK)
}

func (h *Handlers) RevokeSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionID"]

	if err := h.AuthService.RevokeSession(r.Context(), actorFrom(r), sessionID); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeNoContent(w)
}

func (h *Handlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := h.decode(w, r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.AuthService.ChangePassword(r.Context(), actorFrom(r), req.OldPassword, req.NewPassword); err != nil {
		h.respondError(w, r, err)
		return
	}

	writeNoContent(w)
}
