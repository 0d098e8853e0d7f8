package handlers

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"tinyrivals/internal/session"
	"tinyrivals/internal/templates"
	"tinyrivals/pkg/utils"
)

const (
	// loginRate allows one password attempt every 2 seconds per IP.
	loginRate  = rate.Limit(0.5)
	loginBurst = 5

	cleanupThreshold = 500
	maxIdleAge       = 10 * time.Minute
)

type ipEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter hands out one token bucket per client IP and prunes idle
// entries once the map grows past cleanupThreshold.
type IPRateLimiter struct {
	ips map[string]*ipEntry
	mu  sync.Mutex
	r   rate.Limit
	b   int
}

// NewIPRateLimiter creates a new IPRateLimiter.
func NewIPRateLimiter(r rate.Limit, b int) *IPRateLimiter {
	return &IPRateLimiter{
		ips: make(map[string]*ipEntry),
		r:   r,
		b:   b,
	}
}

// GetLimiter returns the limiter for ip.
func (i *IPRateLimiter) GetLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	if len(i.ips) > cleanupThreshold {
		cutoff := time.Now().Add(-maxIdleAge)
		for k, e := range i.ips {
			if e.lastSeen.Before(cutoff) {
				delete(i.ips, k)
			}
		}
	}

	e, ok := i.ips[ip]
	if !ok {
		e = &ipEntry{limiter: rate.NewLimiter(i.r, i.b)}
		i.ips[ip] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// RateLimit rejects requests from clients that exhausted their bucket.
func (i *IPRateLimiter) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !i.GetLimiter(utils.ClientIP(r)).Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HandleLoginPage shows the password form.
func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).Authenticated {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	templates.Render(w, http.StatusOK, "login", h.view(r, "Log in", nil))
}

// HandleLogin checks the posted password and starts a session.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.CheckPassword(r.PostFormValue("password")); err != nil {
		h.Log.WarnContext(r.Context(), "login failed",
			slog.String("ip", utils.ClientIP(r)), slog.Any("error", err))
		h.renderForm(w, r, "login", "Log in", nil, err)
		return
	}
	if err := h.Sessions.Login(w); err != nil {
		h.fail(w, r, err)
		return
	}
	h.Log.InfoContext(r.Context(), "login", slog.String("ip", utils.ClientIP(r)))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout ends the session.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Logout(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
