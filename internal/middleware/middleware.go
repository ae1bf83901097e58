package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"communityboard/internal/access"
	"communityboard/internal/apperr"

	"github.com/gorilla/mux"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

type Middleware func(http.Handler) http.Handler

// Authenticator resolves an access token to an actor.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (access.Actor, error)
}

// RequestObserver records finished requests.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, duration time.Duration)
}

type requestInfo struct {
	id     string
	userID string
}

type requestInfoKey struct{}

// RequestID returns the id assigned by Logging, or an empty string.
func RequestID(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey{}).(*requestInfo); ok {
		return info.id
	}
	return ""
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Logging assigns a request id and emits one entry per request.
func Logging(log logrus.FieldLogger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = xid.New().String()
			}
			w.Header().Set(RequestIDHeader, id)

			info := &requestInfo{id: id}
			ctx := context.WithValue(r.Context(), requestInfoKey{}, info)

			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sw, r.WithContext(ctx))

			entry := log.WithFields(logrus.Fields{
				"request_id":  id,
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      sw.code,
				"duration_ms": time.Since(start).Milliseconds(),
			})
			if info.userID != "" {
				entry = entry.WithField("user_id", info.userID)
			}

			if sw.code >= http.StatusInternalServerError {
				entry.Warn("request failed")
				return
			}
			entry.Info("request")
		})
	}
}

func CORS(allowedOrigin string) Middleware {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")
			if allowedOrigin != "*" {
				w.Header().Set("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate attaches the actor of a bearer token to the request.
// Requests without a token continue as guests; a bad token is rejected.
func Authenticate(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r.WithContext(access.WithActor(r.Context(), access.Guest())))
				return
			}

			// check "Bearer <token>"
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				writeError(w, apperr.New(apperr.ErrInvalidToken, "malformed authorization header"), http.StatusUnauthorized)
				return
			}

			actor, err := auth.Authenticate(r.Context(), strings.TrimSpace(parts[1]))
			if err != nil {
				if errors.Is(err, apperr.ErrInvalidToken) {
					writeError(w, err, http.StatusUnauthorized)
					return
				}
				writeError(w, errors.New("internal server error"), http.StatusInternalServerError)
				return
			}

			if info, ok := r.Context().Value(requestInfoKey{}).(*requestInfo); ok {
				info.userID = actor.ID
			}

			next.ServeHTTP(w, r.WithContext(access.WithActor(r.Context(), actor)))
		})
	}
}

// RequireActor rejects guests.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if access.ActorFromContext(r.Context()).IsGuest() {
			writeError(w, apperr.New(apperr.ErrUnauthorized, "authentication required"), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Metrics labels requests with the matched route template so that ids do
// not explode the label space.
func Metrics(observer RequestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			route := "unmatched"
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}

			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sw, r)

			observer.ObserveRequest(r.Method, route, sw.code, time.Since(start))
		})
	}
}

func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, err error, status int) {
	message := apperr.Message(err)
	if message == "" {
		message = err.Error()
	}
	code := apperr.Code(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: message, Code: code})
}
