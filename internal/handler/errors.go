package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"communityboard/internal/apperr"
	"communityboard/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 1 << 20

// ErrorResponse - standard error body
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrAccountLocked):
		return http.StatusLocked
	case errors.Is(err, apperr.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrDomainRule):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// WriteError sends a JSON error body with the given status.
func WriteError(w http.ResponseWriter, message, code string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message, Code: code})
}

// respondError classifies err. Internal errors are logged and replaced
// with a generic message.
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.Log.WithError(err).
			WithField("request_id", middleware.RequestID(r.Context())).
			WithField("path", r.URL.Path).
			Error("request failed")
		WriteError(w, "internal server error", "internal_error", status)
		return
	}

	WriteError(w, apperr.Message(err), apperr.Code(err), status)
}

// writeSuccess - function for successful responses
func writeSuccess(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// decode reads a JSON body into req and validates its tags.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, req interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return apperr.New(apperr.ErrValidation, "invalid request body")
	}

	if err := h.Validate.Struct(req); err != nil {
		return validationError(err)
	}
	return nil
}

// checkID rejects ids that are not UUIDs before they reach the database.
func (h *Handlers) checkID(name, id string) error {
	if err := h.Validate.Var(id, "uuid"); err != nil {
		return apperr.Newf(apperr.ErrValidation, "%s must be a valid id", name)
	}
	return nil
}

// pathIDs validates every UUID path variable of the matched route.
// Session ids are ULIDs and are checked by their own lookup.
func (h *Handlers) pathIDs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for name, value := range mux.Vars(r) {
			if name == "sessionID" || !strings.HasSuffix(name, "ID") {
				continue
			}
			if err := h.checkID(name, value); err != nil {
				h.respondError(w, r, err)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.New(apperr.ErrValidation, "invalid request")
	}

	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return apperr.Newf(apperr.ErrValidation, "%s is required", fe.Field())
	case "email":
		return apperr.Newf(apperr.ErrValidation, "%s must be a valid email", fe.Field())
	case "uuid":
		return apperr.Newf(apperr.ErrValidation, "%s must be a valid id", fe.Field())
	case "oneof":
		return apperr.Newf(apperr.ErrValidation, "%s must be one of: %s", fe.Field(), fe.Param())
	case "min", "max":
		return apperr.Newf(apperr.ErrValidation, "%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	default:
		return apperr.New(apperr.ErrValidation, fmt.Sprintf("%s is invalid", fe.Field()))
	}
}
