package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"tinyrivals/internal/rivalry"
	"tinyrivals/internal/session"
	"tinyrivals/internal/storage"
	"tinyrivals/internal/templates"
)

// ErrLoginRequired is returned by write operations on an anonymous session.
var ErrLoginRequired = errors.New("login required")

// ValidationError reports a malformed form field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

var dates = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDate accepts 2006-01-02 or an English phrase such as "yesterday" or
// "last friday", relative to now. The result is truncated to the day in UTC.
func ParseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, invalid("date", "date is required")
	}
	if t, err := time.Parse(rivalry.DateLayout, s); err == nil {
		return t, nil
	}
	r, err := dates.Parse(s, now)
	if err != nil || r == nil {
		return time.Time{}, invalid("date", "could not understand date %q", s)
	}
	t := r.Time.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func parseInt(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, invalid(field, "must be a whole number")
	}
	return n, nil
}

type playerForm struct {
	Name string
}

type gameForm struct {
	Date       string
	GameType   string
	NumPlayers string
}

type outcomeForm struct {
	Player     string
	GameNumber string
	Outcome    string
	Points     string
	Players    []storage.Player
}

func readPlayerForm(r *http.Request) playerForm {
	return playerForm{Name: r.PostFormValue("name")}
}

func readGameForm(r *http.Request) gameForm {
	return gameForm{
		Date:       r.PostFormValue("date"),
		GameType:   r.PostFormValue("game_type"),
		NumPlayers: r.PostFormValue("num_players"),
	}
}

func readOutcomeForm(r *http.Request) outcomeForm {
	return outcomeForm{
		Player:     r.PostFormValue("player"),
		GameNumber: r.PostFormValue("game_number"),
		Outcome:    r.PostFormValue("outcome"),
		Points:     r.PostFormValue("pts"),
	}
}

func (f playerForm) validate() (string, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return "", invalid("name", "name is required")
	}
	return name, nil
}

func (f gameForm) validate(now time.Time) (storage.NewGame, error) {
	date, err := ParseDate(f.Date, now)
	if err != nil {
		return storage.NewGame{}, err
	}
	n, err := parseInt("num_players", f.NumPlayers)
	if err != nil {
		return storage.NewGame{}, err
	}
	if n <= 0 {
		return storage.NewGame{}, invalid("num_players", "must be at least 1")
	}
	return storage.NewGame{Date: date, GameType: strings.TrimSpace(f.GameType), NumPlayers: n}, nil
}

// resolve validates the outcome form and looks up the referenced player and game.
func (f outcomeForm) resolve(ctx context.Context, store Store) (storage.NewOutcome, error) {
	kind, ok := rivalry.ParseKind(strings.TrimSpace(f.Outcome))
	if !ok {
		return storage.NewOutcome{}, invalid("outcome", "outcome must be Win, Lose or Tie")
	}
	pts, err := parseInt("pts", f.Points)
	if err != nil {
		return storage.NewOutcome{}, err
	}
	number, err := parseInt("game_number", f.GameNumber)
	if err != nil {
		return storage.NewOutcome{}, err
	}

	p, err := store.FindPlayerByName(ctx, f.Player)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.NewOutcome{}, invalid("player", "no player named %q", f.Player)
	} else if err != nil {
		return storage.NewOutcome{}, err
	}
	g, err := store.FindGameByNumber(ctx, number)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.NewOutcome{}, invalid("game_number", "no game number %d", number)
	} else if err != nil {
		return storage.NewOutcome{}, err
	}
	return storage.NewOutcome{PlayerID: p.ID, GameID: g.ID, Outcome: kind, Pts: pts}, nil
}

// addPlayer validates and stores a new player for an authenticated session.
func (h *Handler) addPlayer(ctx context.Context, st session.State, f playerForm) (storage.Player, error) {
	if !st.Authenticated {
		return storage.Player{}, ErrLoginRequired
	}
	name, err := f.validate()
	if err != nil {
		return storage.Player{}, err
	}
	return h.Store.AddPlayer(ctx, name)
}

// addGame validates and stores a new game for an authenticated session.
func (h *Handler) addGame(ctx context.Context, st session.State, f gameForm) (storage.Game, error) {
	if !st.Authenticated {
		return storage.Game{}, ErrLoginRequired
	}
	in, err := f.validate(time.Now())
	if err != nil {
		return storage.Game{}, err
	}
	return h.Store.AddGame(ctx, in)
}

// addOutcome validates and stores a player's outcome for an authenticated session.
func (h *Handler) addOutcome(ctx context.Context, st session.State, f outcomeForm) (storage.Outcome, error) {
	if !st.Authenticated {
		return storage.Outcome{}, ErrLoginRequired
	}
	in, err := f.resolve(ctx, h.Store)
	if err != nil {
		return storage.Outcome{}, err
	}
	return h.Store.AddOutcome(ctx, in)
}

// writeResult classifies a write error for metrics.
func writeResult(err error) string {
	switch statusFor(err) {
	case http.StatusOK:
		return "ok"
	case http.StatusBadRequest:
		return "invalid"
	case http.StatusConflict:
		return "duplicate"
	case http.StatusUnauthorized:
		return "unauthorized"
	}
	return "error"
}

// renderForm shows a form page again, with err above it when set.
func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, page, title string, data any, err error) {
	status := http.StatusOK
	v := h.view(r, title, data)
	if err != nil {
		status = statusFor(err)
		h.logError(r, status, err)
		v.Error = publicMessage(status, err)
	}
	templates.Render(w, status, page, v)
}

func (h *Handler) HandleNewPlayer(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, "new_player", "Add player", playerForm{}, nil)
}

func (h *Handler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	f := gameForm{Date: time.Now().UTC().Format(rivalry.DateLayout), NumPlayers: "2"}
	h.renderForm(w, r, "new_game", "Add game", f, nil)
}

func (h *Handler) HandleNewOutcome(w http.ResponseWriter, r *http.Request) {
	players, err := h.Store.ListPlayers(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f := outcomeForm{Outcome: string(rivalry.Win), Points: "0", Players: players}
	if n := r.URL.Query().Get("game"); n != "" {
		f.GameNumber = n
	}
	h.renderForm(w, r, "new_outcome", "Add outcome", f, nil)
}

// HandleCreatePlayer stores a player posted from the form.
func (h *Handler) HandleCreatePlayer(w http.ResponseWriter, r *http.Request) {
	f := readPlayerForm(r)
	p, err := h.addPlayer(r.Context(), session.FromContext(r.Context()), f)
	h.Metrics.ObserveWrite("player", writeResult(err))
	if err != nil {
		h.renderForm(w, r, "new_player", "Add player", f, err)
		return
	}
	h.Log.InfoContext(r.Context(), "player added", slog.String("name", p.Name), slog.String("slug", p.Slug))
	http.Redirect(w, r, "/players/"+p.Slug, http.StatusSeeOther)
}

// HandleCreateGame stores a game posted from the form.
func (h *Handler) HandleCreateGame(w http.ResponseWriter, r *http.Request) {
	f := readGameForm(r)
	g, err := h.addGame(r.Context(), session.FromContext(r.Context()), f)
	h.Metrics.ObserveWrite("game", writeResult(err))
	if err != nil {
		h.renderForm(w, r, "new_game", "Add game", f, err)
		return
	}
	h.Log.InfoContext(r.Context(), "game added",
		slog.Int("number", g.Number), slog.Int("num_players", g.NumPlayers))
	http.Redirect(w, r, fmt.Sprintf("/outcomes/new?game=%d", g.Number), http.StatusSeeOther)
}

// HandleCreateOutcome stores an outcome posted from the form.
func (h *Handler) HandleCreateOutcome(w http.ResponseWriter, r *http.Request) {
	f := readOutcomeForm(r)
	_, err := h.addOutcome(r.Context(), session.FromContext(r.Context()), f)
	h.Metrics.ObserveWrite("outcome", writeResult(err))
	if err != nil {
		if players, lerr := h.Store.ListPlayers(r.Context()); lerr == nil {
			f.Players = players
		}
		h.renderForm(w, r, "new_outcome", "Add outcome", f, err)
		return
	}
	h.Log.InfoContext(r.Context(), "outcome added",
		slog.String("player", f.Player), slog.String("game", f.GameNumber), slog.String("outcome", f.Outcome))
	http.Redirect(w, r, "/games", http.StatusSeeOther)
}
