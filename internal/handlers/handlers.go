package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tinyrivals/internal/metrics"
	"tinyrivals/internal/pagination"
	"tinyrivals/internal/report"
	"tinyrivals/internal/rivalry"
	"tinyrivals/internal/session"
	"tinyrivals/internal/storage"
	"tinyrivals/internal/templates"
)

// Store is the data access the handlers need.
type Store interface {
	Ping(ctx context.Context) error
	Rivalry(ctx context.Context, pair rivalry.Pair, exactlyTwo bool) (rivalry.Report, error)
	PlayerRows(ctx context.Context, playerID uuid.UUID) ([]rivalry.Row, error)
	ListOutcomes(ctx context.Context, page, perPage int, errorOut bool) (pagination.Page[rivalry.Row], error)
	FindPlayerByName(ctx context.Context, name string) (storage.Player, error)
	FindPlayerBySlug(ctx context.Context, slug string) (storage.Player, error)
	FindGameByNumber(ctx context.Context, number int) (storage.Game, error)
	ListPlayers(ctx context.Context) ([]storage.Player, error)
	FetchStats(ctx context.Context) (storage.Stats, error)
	AddPlayer(ctx context.Context, name string) (storage.Player, error)
	AddGame(ctx context.Context, in storage.NewGame) (storage.Game, error)
	AddOutcome(ctx context.Context, in storage.NewOutcome) (storage.Outcome, error)
}

var _ Store = (*storage.Store)(nil)

// Options configures a Handler.
type Options struct {
	Pair     rivalry.Pair
	PerPage  int
	ErrorOut bool
	// TrustProxy takes the client address from X-Real-IP / X-Forwarded-For.
	// Only enable it behind a proxy that overwrites those headers.
	TrustProxy bool
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	Store    Store
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	Log      *slog.Logger
	Limiter  *IPRateLimiter
	opts     Options
}

// NewHandler creates a new handler instance
func NewHandler(store Store, sessions *session.Manager, m *metrics.Metrics, log *slog.Logger, opts Options) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if opts.PerPage <= 0 {
		opts.PerPage = pagination.DefaultPerPage
	}
	return &Handler{
		Store:    store,
		Sessions: sessions,
		Metrics:  m,
		Log:      log,
		Limiter:  NewIPRateLimiter(loginRate, loginBurst),
		opts:     opts,
	}
}

func (h *Handler) view(r *http.Request, title string, data any) templates.View {
	return templates.View{
		Title:         title,
		Authenticated: session.FromContext(r.Context()).Authenticated,
		Data:          data,
	}
}

type homeData struct {
	Stats   storage.Stats
	Rivalry rivalry.Report
}

// HandleHome serves the scoreboard overview.
func (h *Handler) HandleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	stats, err := h.Store.FetchStats(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rep, err := h.Store.Rivalry(ctx, h.opts.Pair, true)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	templates.Render(w, http.StatusOK, "index", h.view(r, "", homeData{Stats: stats, Rivalry: rep}))
}

// HandleGames serves one page of the joined outcome listing.
func (h *Handler) HandleGames(w http.ResponseWriter, r *http.Request) {
	page := 1
	if v := r.URL.Query().Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.fail(w, r, &ValidationError{Field: "page", Message: "page must be a number"})
			return
		}
		page = n
	}
	p, err := h.Store.ListOutcomes(r.Context(), page, h.opts.PerPage, h.opts.ErrorOut)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	templates.Render(w, http.StatusOK, "games", h.view(r, "Games", p))
}

type rivalriesData struct {
	All      rivalry.Report
	OneOnOne rivalry.Report
}

func (h *Handler) reports(ctx context.Context) (rivalriesData, error) {
	all, err := h.Store.Rivalry(ctx, h.opts.Pair, false)
	if err != nil {
		return rivalriesData{}, err
	}
	one, err := h.Store.Rivalry(ctx, h.opts.Pair, true)
	if err != nil {
		return rivalriesData{}, err
	}
	return rivalriesData{All: all, OneOnOne: one}, nil
}

// HandleRivalries serves both rivalry views.
func (h *Handler) HandleRivalries(w http.ResponseWriter, r *http.Request) {
	data, err := h.reports(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	templates.Render(w, http.StatusOK, "rivalries", h.view(r, "Rivalries", data))
}

// HandleExport streams both rivalry views as an XLSX workbook.
func (h *Handler) HandleExport(w http.ResponseWriter, r *http.Request) {
	data, err := h.reports(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	book, err := report.Workbook(data.All, data.OneOnOne)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="rivalries.xlsx"`)
	_, _ = w.Write(book)
}

// exactlyTwo reads the mode query parameter: "1v1" or "all" (the default).
func exactlyTwo(r *http.Request) (bool, error) {
	switch r.URL.Query().Get("mode") {
	case "", "all":
		return false, nil
	case "1v1":
		return true, nil
	}
	return false, &ValidationError{Field: "mode", Message: `mode must be "all" or "1v1"`}
}

// HandleChart renders a rivalry view as a PNG bar chart.
func (h *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	two, err := exactlyTwo(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rep, err := h.Store.Rivalry(r.Context(), h.opts.Pair, two)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	png, err := report.Chart(rep)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// HandleRivalryAPI returns a rivalry view as JSON.
func (h *Handler) HandleRivalryAPI(w http.ResponseWriter, r *http.Request) {
	two, err := exactlyTwo(r)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	rep, err := h.Store.Rivalry(r.Context(), h.opts.Pair, two)
	if err != nil {
		h.failJSON(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"header":  rep.Header,
		"rows":    rep.Rows,
		"summary": rep.Summary,
	})
}

// HandlePlayers lists every player.
func (h *Handler) HandlePlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.Store.ListPlayers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	templates.Render(w, http.StatusOK, "players", h.view(r, "Players", players))
}

type playerData struct {
	Player storage.Player
	Rows   []rivalry.Row
	Games  int
	Wins   int
	Losses int
	Ties   int
	Points int
}

// HandlePlayer shows one player's recorded outcomes.
func (h *Handler) HandlePlayer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.Store.FindPlayerBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	rows, err := h.Store.PlayerRows(ctx, p.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	data := playerData{Player: p, Rows: rows, Games: len(rows)}
	for _, row := range rows {
		data.Points += row.Points
		switch row.Outcome {
		case rivalry.Win:
			data.Wins++
		case rivalry.Lose:
			data.Losses++
		case rivalry.Tie:
			data.Ties++
		}
	}
	templates.Render(w, http.StatusOK, "player", h.view(r, p.Name, data))
}

// HandleAbout serves the about page.
func (h *Handler) HandleAbout(w http.ResponseWriter, r *http.Request) {
	templates.Render(w, http.StatusOK, "about", h.view(r, "About", nil))
}

// HandleHealth reports whether the database is reachable.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.Log.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
		WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false, "error": "database unavailable"})
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"ok": true, "commit": templates.Commit()})
}

// fail renders an error page with the status the error maps to.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	h.logError(r, status, err)
	v := h.view(r, http.StatusText(status), nil)
	v.Error = publicMessage(status, err)
	templates.Render(w, status, "error", v)
}

func (h *Handler) failJSON(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	h.logError(r, status, err)
	WriteJSON(w, status, map[string]any{"ok": false, "error": publicMessage(status, err)})
}

func (h *Handler) logError(r *http.Request, status int, err error) {
	if status >= http.StatusInternalServerError {
		h.Log.ErrorContext(r.Context(), "request failed",
			slog.String("path", r.URL.Path), slog.Int("status", status), slog.Any("error", err))
		return
	}
	h.Log.DebugContext(r.Context(), "request rejected",
		slog.String("path", r.URL.Path), slog.Int("status", status), slog.Any("error", err))
}

// publicMessage hides internal failures from the client.
func publicMessage(status int, err error) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "Something went wrong. Please try again."
	case status == http.StatusNotFound:
		return "Nothing here."
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return err.Error()
}
