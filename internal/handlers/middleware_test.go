package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"tinyrivals/internal/pagination"
	"tinyrivals/internal/session"
	"tinyrivals/internal/storage"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{invalid("name", "name is required"), http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", invalid("pts", "bad")), http.StatusBadRequest},
		{storage.ErrNotFound, http.StatusNotFound},
		{pagination.ErrNotFound, http.StatusNotFound},
		{storage.ErrDuplicateName, http.StatusConflict},
		{storage.ErrDuplicateGame, http.StatusConflict},
		{fmt.Errorf("insert: %w", storage.ErrDuplicateOutcome), http.StatusConflict},
		{ErrLoginRequired, http.StatusUnauthorized},
		{session.ErrBadPassword, http.StatusUnauthorized},
		{session.ErrLoginDisabled, http.StatusForbidden},
		{storage.ErrNoDatabase, http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}

func TestRequireAuthAPI(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/outcomes", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	req := httptest.NewRequest(http.MethodPost, "/api/outcomes", nil)
	req = req.WithContext(session.WithState(req.Context(), session.State{Authenticated: true}))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestIPRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(0, 2)
	assert.True(t, l.GetLimiter("10.0.0.1").Allow())
	assert.True(t, l.GetLimiter("10.0.0.1").Allow())
	assert.False(t, l.GetLimiter("10.0.0.1").Allow())
	assert.True(t, l.GetLimiter("10.0.0.2").Allow())
	assert.Same(t, l.GetLimiter("10.0.0.1"), l.GetLimiter("10.0.0.1"))
}
