package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"tinyrivals/internal/logging"
	"tinyrivals/internal/pagination"
	"tinyrivals/internal/rivalry"
	"tinyrivals/pkg/utils"
)

// Store wraps a gorm DB instance and provides the queries and inserts the app needs.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = gorm.ErrRecordNotFound

	// ErrNoDatabase is returned by writes on a store without a connection.
	ErrNoDatabase = errors.New("no database configured")

	// ErrDuplicateName is returned when a player with the same name exists.
	ErrDuplicateName = errors.New("a player with that name already exists")

	// ErrDuplicateGame is returned when a game with the same date and player count exists.
	ErrDuplicateGame = errors.New("a game with that date and number of players already exists")

	// ErrDuplicateOutcome is returned when the player already has an outcome for the game.
	ErrDuplicateOutcome = errors.New("that player already has an outcome for this game")

	// ErrUnknownPlayer is returned when an outcome references a missing player.
	ErrUnknownPlayer = errors.New("player does not exist")

	// ErrUnknownGame is returned when an outcome references a missing game.
	ErrUnknownGame = errors.New("game does not exist")
)

// Unique index names that AddPlayer tells apart.
const (
	indexPlayerName = "idx_players_name"
	indexPlayerSlug = "idx_players_slug"
)

func isUniqueViolation(err error) bool {
	_, ok := uniqueViolation(err)
	return ok
}

// uniqueViolation reports whether err is a Postgres unique violation and
// which constraint it hit.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil {
		return ErrNoDatabase
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// joined selects outcome rows together with their player and game columns.
func (s *Store) joined(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("outcomes").
		Select("outcomes.outcome, outcomes.pts, players.name, games.number, games.date, games.num_players").
		Joins("JOIN players ON players.id = outcomes.player_id").
		Joins("JOIN games ON games.id = outcomes.game_id")
}

// JoinedRows returns outcome rows joined with player and game, newest game first.
func (s *Store) JoinedRows(ctx context.Context, f RowFilter) ([]rivalry.Row, error) {
	if s == nil {
		return nil, nil
	}
	q := s.joined(ctx)
	if len(f.Names) > 0 {
		q = q.Where("players.name IN ?", f.Names)
	}
	if f.NumPlayers > 0 {
		q = q.Where("games.num_players = ?", f.NumPlayers)
	}
	var rows []rivalry.Row
	if err := q.Order("games.number DESC").Order("players.name").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query joined rows: %w", err)
	}
	return rows, nil
}

// Rivalry loads the rows of both rivals and builds their head-to-head report.
func (s *Store) Rivalry(ctx context.Context, pair rivalry.Pair, exactlyTwo bool) (rivalry.Report, error) {
	f := RowFilter{Names: []string{pair.A, pair.B}}
	if exactlyTwo {
		f.NumPlayers = 2
	}
	rows, err := s.JoinedRows(ctx, f)
	if err != nil {
		return rivalry.Report{}, err
	}
	return rivalry.Build(rows, pair, exactlyTwo), nil
}

// PlayerRows returns every joined row for one player, newest game first.
func (s *Store) PlayerRows(ctx context.Context, playerID uuid.UUID) ([]rivalry.Row, error) {
	if s == nil {
		return nil, nil
	}
	var rows []rivalry.Row
	err := s.joined(ctx).
		Where("outcomes.player_id = ?", playerID).
		Order("games.number DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query player rows: %w", err)
	}
	return rows, nil
}

// ListOutcomes returns one page of joined rows ordered by game date, game
// number and points, all descending. See pagination.Window for how
// out-of-range pages are treated.
func (s *Store) ListOutcomes(ctx context.Context, page, perPage int, errorOut bool) (pagination.Page[rivalry.Row], error) {
	if perPage <= 0 {
		perPage = pagination.DefaultPerPage
	}
	if s == nil {
		return pagination.Empty[rivalry.Row](page, perPage, 0), nil
	}
	var total int64
	if err := s.db.WithContext(ctx).Model(&Outcome{}).Count(&total).Error; err != nil {
		return pagination.Page[rivalry.Row]{}, fmt.Errorf("count outcomes: %w", err)
	}
	offset, ok, err := pagination.Window(page, perPage, total, errorOut)
	if err != nil {
		return pagination.Page[rivalry.Row]{}, err
	}
	if !ok {
		return pagination.Empty[rivalry.Row](page, perPage, total), nil
	}

	var rows []rivalry.Row
	err = s.joined(ctx).
		Order("games.date DESC").
		Order("games.number DESC").
		Order("outcomes.pts DESC").
		Limit(perPage).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return pagination.Page[rivalry.Row]{}, fmt.Errorf("list outcomes: %w", err)
	}
	p := pagination.Empty[rivalry.Row](page, perPage, total)
	p.Items = rows
	return p, nil
}

// CountGames returns how many games have been recorded.
func (s *Store) CountGames(ctx context.Context) (int64, error) {
	if s == nil {
		return 0, nil
	}
	var n int64
	err := s.db.WithContext(ctx).Model(&Game{}).Count(&n).Error
	return n, err
}

// FindPlayerByName looks a player up by exact, case-sensitive name.
func (s *Store) FindPlayerByName(ctx context.Context, name string) (Player, error) {
	var p Player
	if s == nil {
		return p, ErrNotFound
	}
	err := s.db.WithContext(ctx).Where("name = ?", name).First(&p).Error
	return p, err
}

// FindPlayerBySlug looks a player up by URL slug.
func (s *Store) FindPlayerBySlug(ctx context.Context, sl string) (Player, error) {
	var p Player
	if s == nil {
		return p, ErrNotFound
	}
	err := s.db.WithContext(ctx).Where("slug = ?", sl).First(&p).Error
	return p, err
}

// FindGameByNumber looks a game up by its user-facing number.
func (s *Store) FindGameByNumber(ctx context.Context, number int) (Game, error) {
	var g Game
	if s == nil {
		return g, ErrNotFound
	}
	err := s.db.WithContext(ctx).Where("number = ?", number).First(&g).Error
	return g, err
}

// FindGameByKey looks a game up by its (date, number of players) key.
func (s *Store) FindGameByKey(ctx context.Context, date time.Time, numPlayers int) (Game, error) {
	var g Game
	if s == nil {
		return g, ErrNotFound
	}
	err := s.db.WithContext(ctx).
		Where("date = ? AND num_players = ?", date, numPlayers).
		First(&g).Error
	return g, err
}

// ListPlayers returns all players ordered by name.
func (s *Store) ListPlayers(ctx context.Context) ([]Player, error) {
	if s == nil {
		return nil, nil
	}
	var players []Player
	err := s.db.WithContext(ctx).Order("name").Find(&players).Error
	return players, err
}

// Stats represents aggregate counts for display on the home page.
type Stats struct {
	Players  int64 `json:"players"`
	Games    int64 `json:"games"`
	Outcomes int64 `json:"outcomes"`
}

// FetchStats aggregates counts for display on the home page.
func (s *Store) FetchStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if s == nil {
		return stats, nil
	}
	if err := s.db.WithContext(ctx).Model(&Player{}).Count(&stats.Players).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&Game{}).Count(&stats.Games).Error; err != nil {
		return stats, err
	}
	if err := s.db.WithContext(ctx).Model(&Outcome{}).Count(&stats.Outcomes).Error; err != nil {
		return stats, err
	}
	return stats, nil
}

// AddPlayer inserts a player after checking the name is not taken.
func (s *Store) AddPlayer(ctx context.Context, name string) (Player, error) {
	if s == nil {
		return Player{}, ErrNoDatabase
	}
	db := s.db.WithContext(ctx)

	var taken int64
	if err := db.Model(&Player{}).Where("name = ?", name).Count(&taken).Error; err != nil {
		return Player{}, err
	}
	if taken > 0 {
		return Player{}, ErrDuplicateName
	}

	for attempt := 0; ; attempt++ {
		sl, err := s.freeSlug(ctx, name)
		if err != nil {
			return Player{}, err
		}
		p := Player{Name: name, Slug: sl}
		err = db.Create(&p).Error
		if err == nil {
			return p, nil
		}
		constraint, ok := uniqueViolation(err)
		switch {
		case !ok:
			return Player{}, err
		case constraint == indexPlayerSlug && attempt < 3:
			logging.Debugf("slug %q claimed concurrently, retrying", sl)
			continue
		case constraint == indexPlayerSlug:
			return Player{}, fmt.Errorf("allocate slug for %q: %w", name, err)
		case constraint == indexPlayerName:
			return Player{}, ErrDuplicateName
		}
		return Player{}, err
	}
}

// reservedSlugs collide with static routes under /players.
var reservedSlugs = map[string]bool{"new": true}

// baseSlug derives the unsuffixed URL slug for name.
func baseSlug(name string) string {
	base := slug.Make(name)
	if base == "" {
		base = "player"
	}
	return base
}

// freeSlug derives a URL slug from name, suffixing it when already used or
// reserved.
func (s *Store) freeSlug(ctx context.Context, name string) (string, error) {
	base := baseSlug(name)
	candidate := base
	for i := 0; i < 5; i++ {
		if !reservedSlugs[candidate] {
			var n int64
			if err := s.db.WithContext(ctx).Model(&Player{}).Where("slug = ?", candidate).Count(&n).Error; err != nil {
				return "", err
			}
			if n == 0 {
				return candidate, nil
			}
		}
		next := base + "-" + utils.RandomHex(2)
		logging.Debugf("slug %q taken, trying %q", candidate, next)
		candidate = next
	}
	return base + "-" + utils.RandomHex(4), nil
}

// AddGame inserts a game numbered one past the current game count. The
// games table is locked for the duration of the transaction so concurrent
// writers cannot hand out the same number.
func (s *Store) AddGame(ctx context.Context, in NewGame) (Game, error) {
	if s == nil {
		return Game{}, ErrNoDatabase
	}
	var g Game
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("LOCK TABLE games IN SHARE ROW EXCLUSIVE MODE").Error; err != nil {
			return fmt.Errorf("lock games: %w", err)
		}

		var dup int64
		if err := tx.Model(&Game{}).
			Where("date = ? AND num_players = ?", in.Date, in.NumPlayers).
			Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return ErrDuplicateGame
		}

		var count int64
		if err := tx.Model(&Game{}).Count(&count).Error; err != nil {
			return err
		}
		g = Game{
			Number:     int(count) + 1,
			Date:       in.Date,
			GameType:   in.GameType,
			NumPlayers: in.NumPlayers,
		}
		logging.Debugf("assigning game number %d", g.Number)
		return tx.Create(&g).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return Game{}, ErrDuplicateGame
		}
		return Game{}, err
	}
	return g, nil
}

// AddOutcome records a player's result in a game.
func (s *Store) AddOutcome(ctx context.Context, in NewOutcome) (Outcome, error) {
	if s == nil {
		return Outcome{}, ErrNoDatabase
	}
	db := s.db.WithContext(ctx)

	var n int64
	if err := db.Model(&Player{}).Where("id = ?", in.PlayerID).Count(&n).Error; err != nil {
		return Outcome{}, err
	}
	if n == 0 {
		return Outcome{}, ErrUnknownPlayer
	}
	if err := db.Model(&Game{}).Where("id = ?", in.GameID).Count(&n).Error; err != nil {
		return Outcome{}, err
	}
	if n == 0 {
		return Outcome{}, ErrUnknownGame
	}
	if err := db.Model(&Outcome{}).
		Where("player_id = ? AND game_id = ?", in.PlayerID, in.GameID).
		Count(&n).Error; err != nil {
		return Outcome{}, err
	}
	if n > 0 {
		return Outcome{}, ErrDuplicateOutcome
	}

	o := Outcome{
		PlayerID: in.PlayerID,
		GameID:   in.GameID,
		Outcome:  in.Outcome,
		Pts:      in.Pts,
	}
	if err := db.Create(&o).Error; err != nil {
		if isUniqueViolation(err) {
			return Outcome{}, ErrDuplicateOutcome
		}
		return Outcome{}, err
	}
	return o, nil
}
