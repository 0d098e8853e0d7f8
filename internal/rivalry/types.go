package rivalry

import "time"

// Kind is the recorded result of one player in one game.
type Kind string

const (
	Win  Kind = "Win"
	Lose Kind = "Lose"
	Tie  Kind = "Tie"
)

// Kinds lists the accepted outcome labels.
var Kinds = []Kind{Win, Lose, Tie}

// ParseKind returns the Kind matching label exactly.
func ParseKind(label string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == label {
			return k, true
		}
	}
	return "", false
}

// Row is one outcome joined with its player and game.
type Row struct {
	Outcome    Kind      `json:"outcome" gorm:"column:outcome"`
	Points     int       `json:"points" gorm:"column:pts"`
	Name       string    `json:"name" gorm:"column:name"`
	GameNumber int       `json:"game_number" gorm:"column:number"`
	Date       time.Time `json:"date" gorm:"column:date"`
	NumPlayers int       `json:"num_players" gorm:"column:num_players"`
}

// Header names the columns of a Row in display order.
var Header = []string{"Outcome", "Points", "Name", "Game Number", "Date", "Number of Players"}

// Pair holds the two distinguished player names of a rivalry.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Summary holds the head-to-head tallies for a filtered row set.
type Summary struct {
	TotalGames int `json:"total_games"`
	WinsA      int `json:"wins_a"`
	WinsB      int `json:"wins_b"`
	Ties       int `json:"ties"`
}

// Report is a filtered, sorted and summarized rivalry view.
type Report struct {
	Pair       Pair     `json:"pair"`
	ExactlyTwo bool     `json:"exactly_two"`
	Header     []string `json:"header"`
	Rows       []Row    `json:"rows"`
	Summary    Summary  `json:"summary"`
}
