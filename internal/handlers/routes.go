package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"tinyrivals/internal/storage"
)

// Routes builds the application router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	if h.opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.Log))
	r.Use(h.Metrics.Middleware)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(h.Sessions.Load)

	r.Get("/", h.HandleHome)
	r.Get("/games", h.HandleGames)
	r.Get("/rivalries", h.HandleRivalries)
	r.Get("/rivalries/export.xlsx", h.HandleExport)
	r.Get("/rivalries/chart.png", h.HandleChart)
	r.Get("/api/rivalry", h.HandleRivalryAPI)
	r.Get("/players", h.HandlePlayers)
	r.Get("/players/{slug}", h.HandlePlayer)
	r.Get("/about", h.HandleAbout)
	r.Get("/healthz", h.HandleHealth)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics.Handler())
	}

	r.Get("/Games", redirect("/games"))
	r.Get("/Rivalries", redirect("/rivalries"))
	r.Get("/About", redirect("/about"))

	r.Get("/login", h.HandleLoginPage)
	r.With(h.Limiter.RateLimit).Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)
		r.Get("/players/new", h.HandleNewPlayer)
		r.Get("/games/new", h.HandleNewGame)
		r.Get("/outcomes/new", h.HandleNewOutcome)
		r.Post("/players", h.HandleCreatePlayer)
		r.Post("/games", h.HandleCreateGame)
		r.Post("/outcomes", h.HandleCreateOutcome)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.fail(w, r, storage.ErrNotFound)
	})
	return r
}
