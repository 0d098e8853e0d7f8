package storage

import (
	"time"

	"github.com/google/uuid"

	"tinyrivals/internal/rivalry"
)

// Player is someone who plays in recorded games.
type Player struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"not null;uniqueIndex:idx_players_name" json:"name"`
	Slug      string    `gorm:"not null;uniqueIndex:idx_players_slug" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	Outcomes  []Outcome `json:"-"`
}

// Game is one play session. Number is the user-facing sequence.
type Game struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Number     int       `gorm:"not null;uniqueIndex" json:"number"`
	Date       time.Time `gorm:"not null;uniqueIndex:idx_games_date_players" json:"date"`
	GameType   string    `json:"game_type"`
	NumPlayers int       `gorm:"not null;check:num_players > 0;uniqueIndex:idx_games_date_players" json:"num_players"`
	CreatedAt  time.Time `json:"created_at"`
	Outcomes   []Outcome `json:"-"`
}

// Outcome is one player's result in one game.
type Outcome struct {
	ID        uuid.UUID    `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PlayerID  uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_outcomes_player_game" json:"player_id"`
	Player    Player       `gorm:"constraint:OnDelete:RESTRICT;" json:"-"`
	GameID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_outcomes_player_game;index" json:"game_id"`
	Game      Game         `gorm:"constraint:OnDelete:RESTRICT;" json:"-"`
	Outcome   rivalry.Kind `gorm:"type:varchar(8);not null;check:outcome IN ('Win','Lose','Tie')" json:"outcome"`
	Pts       int          `gorm:"not null;default:0" json:"pts"`
	CreatedAt time.Time    `json:"created_at"`
}

// NewGame carries the fields supplied when recording a game.
type NewGame struct {
	Date       time.Time
	GameType   string
	NumPlayers int
}

// NewOutcome carries the fields supplied when recording an outcome.
type NewOutcome struct {
	PlayerID uuid.UUID
	GameID   uuid.UUID
	Outcome  rivalry.Kind
	Pts      int
}

// RowFilter narrows JoinedRows. Zero values mean no filter.
type RowFilter struct {
	Names      []string
	NumPlayers int
}
