package handlers

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"tinyrivals/internal/pagination"
	"tinyrivals/internal/rivalry"
	"tinyrivals/internal/storage"
	"tinyrivals/pkg/utils"
)

// fakeStore is an in-memory Store with the same duplicate rules as Postgres.
type fakeStore struct {
	mu       sync.Mutex
	players  []storage.Player
	games    []storage.Game
	outcomes []storage.Outcome
	pingErr  error
}

var _ Store = (*fakeStore)(nil)

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) rows() []rivalry.Row {
	players := make(map[uuid.UUID]storage.Player, len(f.players))
	for _, p := range f.players {
		players[p.ID] = p
	}
	games := make(map[uuid.UUID]storage.Game, len(f.games))
	for _, g := range f.games {
		games[g.ID] = g
	}
	rows := make([]rivalry.Row, 0, len(f.outcomes))
	for _, o := range f.outcomes {
		p, g := players[o.PlayerID], games[o.GameID]
		rows = append(rows, rivalry.Row{
			Outcome:    o.Outcome,
			Points:     o.Pts,
			Name:       p.Name,
			GameNumber: g.Number,
			Date:       g.Date,
			NumPlayers: g.NumPlayers,
		})
	}
	return rows
}

func (f *fakeStore) Rivalry(_ context.Context, pair rivalry.Pair, exactlyTwo bool) (rivalry.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.rows()
	slices.SortStableFunc(rows, func(a, b rivalry.Row) int { return b.GameNumber - a.GameNumber })
	return rivalry.Build(rows, pair, exactlyTwo), nil
}

func (f *fakeStore) PlayerRows(_ context.Context, id uuid.UUID) ([]rivalry.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var name string
	for _, p := range f.players {
		if p.ID == id {
			name = p.Name
		}
	}
	var out []rivalry.Row
	for _, r := range f.rows() {
		if r.Name == name {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) ListOutcomes(_ context.Context, page, perPage int, errorOut bool) (pagination.Page[rivalry.Row], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.rows()
	total := int64(len(rows))
	offset, ok, err := pagination.Window(page, perPage, total, errorOut)
	if err != nil {
		return pagination.Page[rivalry.Row]{}, err
	}
	p := pagination.Empty[rivalry.Row](page, perPage, total)
	if !ok {
		return p, nil
	}
	slices.SortFunc(rows, func(a, b rivalry.Row) int {
		return cmp.Or(
			b.Date.Compare(a.Date),
			cmp.Compare(b.GameNumber, a.GameNumber),
			cmp.Compare(b.Points, a.Points),
		)
	})
	p.Items = rows[offset:min(offset+perPage, len(rows))]
	return p, nil
}

func (f *fakeStore) FindPlayerByName(_ context.Context, name string) (storage.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.Name == name {
			return p, nil
		}
	}
	return storage.Player{}, storage.ErrNotFound
}

func (f *fakeStore) FindPlayerBySlug(_ context.Context, sl string) (storage.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.Slug == sl {
			return p, nil
		}
	}
	return storage.Player{}, storage.ErrNotFound
}

func (f *fakeStore) FindGameByNumber(_ context.Context, number int) (storage.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.games {
		if g.Number == number {
			return g, nil
		}
	}
	return storage.Game{}, storage.ErrNotFound
}

func (f *fakeStore) ListPlayers(context.Context) ([]storage.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.players)
	slices.SortFunc(out, func(a, b storage.Player) int { return cmp.Compare(a.Name, b.Name) })
	return out, nil
}

func (f *fakeStore) FetchStats(context.Context) (storage.Stats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return storage.Stats{
		Players:  int64(len(f.players)),
		Games:    int64(len(f.games)),
		Outcomes: int64(len(f.outcomes)),
	}, nil
}

func (f *fakeStore) AddPlayer(_ context.Context, name string) (storage.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.players {
		if p.Name == name {
			return storage.Player{}, storage.ErrDuplicateName
		}
	}
	sl := slug.Make(name)
	if sl == "new" {
		sl += "-" + utils.RandomHex(2)
	}
	p := storage.Player{ID: uuid.New(), Name: name, Slug: sl}
	f.players = append(f.players, p)
	return p, nil
}

func (f *fakeStore) AddGame(_ context.Context, in storage.NewGame) (storage.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, g := range f.games {
		if g.Date.Equal(in.Date) && g.NumPlayers == in.NumPlayers {
			return storage.Game{}, storage.ErrDuplicateGame
		}
	}
	g := storage.Game{
		ID:         uuid.New(),
		Number:     len(f.games) + 1,
		Date:       in.Date,
		GameType:   in.GameType,
		NumPlayers: in.NumPlayers,
	}
	f.games = append(f.games, g)
	return g, nil
}

func (f *fakeStore) AddOutcome(_ context.Context, in storage.NewOutcome) (storage.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.outcomes {
		if o.PlayerID == in.PlayerID && o.GameID == in.GameID {
			return storage.Outcome{}, storage.ErrDuplicateOutcome
		}
	}
	o := storage.Outcome{ID: uuid.New(), PlayerID: in.PlayerID, GameID: in.GameID, Outcome: in.Outcome, Pts: in.Pts}
	f.outcomes = append(f.outcomes, o)
	return o, nil
}
