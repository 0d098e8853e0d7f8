package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"tinyrivals/internal/pagination"
	"tinyrivals/internal/session"
	"tinyrivals/internal/storage"
	"tinyrivals/pkg/utils"
)

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error to the HTTP status it is reported with.
func statusFor(err error) int {
	var verr *ValidationError
	switch {
	case err == nil:
		return http.StatusOK
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, pagination.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateName),
		errors.Is(err, storage.ErrDuplicateGame),
		errors.Is(err, storage.ErrDuplicateOutcome):
		return http.StatusConflict
	case errors.Is(err, ErrLoginRequired),
		errors.Is(err, session.ErrBadPassword),
		errors.Is(err, session.ErrInvalidSession):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrLoginDisabled):
		return http.StatusForbidden
	case errors.Is(err, storage.ErrNoDatabase):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// RequestLogger logs method, path, status and duration of every request.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.InfoContext(r.Context(), "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("ip", utils.ClientIP(r)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// RequireAuth rejects requests without an authenticated session. API
// requests get 401; page requests are sent to the login form.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.FromContext(r.Context()).Authenticated {
			next.ServeHTTP(w, r)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/api/") {
			WriteJSON(w, http.StatusUnauthorized, map[string]any{"ok": false, "error": "login required"})
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
}

// redirect permanently sends legacy paths to their current location.
func redirect(to string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := to
		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	}
}
