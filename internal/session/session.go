// Package session carries the login state of a request. The state lives in a
// signed cookie and is handed to handlers through the request context.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// CookieName is the name of the session cookie.
const CookieName = "tinyrivals_session"

var (
	// ErrInvalidSession indicates a missing, expired or tampered session cookie.
	ErrInvalidSession = errors.New("invalid session")

	// ErrBadPassword indicates the supplied password did not match.
	ErrBadPassword = errors.New("incorrect password")

	// ErrLoginDisabled indicates no password hash is configured.
	ErrLoginDisabled = errors.New("login is not configured")
)

// State is the per-request session.
type State struct {
	Authenticated bool
	ExpiresAt     time.Time
}

type claims struct {
	jwt.RegisteredClaims
	Authenticated bool `json:"auth"`
}

// Manager issues and verifies session cookies.
type Manager struct {
	secret       []byte
	ttl          time.Duration
	secure       bool
	passwordHash []byte
	now          func() time.Time
}

// NewManager creates a session manager. passwordHash is a bcrypt hash; when
// empty every login attempt fails with ErrLoginDisabled.
func NewManager(secret string, ttl time.Duration, secure bool, passwordHash string) *Manager {
	return &Manager{
		secret:       []byte(secret),
		ttl:          ttl,
		secure:       secure,
		passwordHash: []byte(passwordHash),
		now:          time.Now,
	}
}

// HashPassword returns the bcrypt hash to configure as the admin password.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword compares password against the configured hash.
func (m *Manager) CheckPassword(password string) error {
	if len(m.passwordHash) == 0 {
		return ErrLoginDisabled
	}
	if err := bcrypt.CompareHashAndPassword(m.passwordHash, []byte(password)); err != nil {
		return ErrBadPassword
	}
	return nil
}

// Token returns a signed token for an authenticated session.
func (m *Manager) Token() (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	c := &claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Authenticated: true,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies a token and returns the session it encodes.
func (m *Manager) Parse(token string) (State, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidSession
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return State{}, ErrInvalidSession
	}
	c, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return State{}, ErrInvalidSession
	}
	st := State{Authenticated: c.Authenticated}
	if c.ExpiresAt != nil {
		st.ExpiresAt = c.ExpiresAt.Time
	}
	return st, nil
}

// Login sets an authenticated session cookie on the response.
func (m *Manager) Login(w http.ResponseWriter) error {
	token, exp, err := m.Token()
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Logout clears the session cookie.
func (m *Manager) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest reads the session from the request cookie. A missing or bad
// cookie yields an anonymous session.
func (m *Manager) FromRequest(r *http.Request) State {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return State{}
	}
	st, err := m.Parse(c.Value)
	if err != nil {
		return State{}
	}
	return st
}

// Load is middleware that attaches the request's session to its context.
func (m *Manager) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithState(r.Context(), m.FromRequest(r))))
	})
}

type ctxKey struct{}

// WithState returns a copy of ctx carrying st.
func WithState(ctx context.Context, st State) context.Context {
	return context.WithValue(ctx, ctxKey{}, st)
}

// FromContext returns the session stored in ctx, or an anonymous one.
func FromContext(ctx context.Context) State {
	st, _ := ctx.Value(ctxKey{}).(State)
	return st
}
