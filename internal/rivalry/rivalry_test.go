package rivalry

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	clayton = "Clayton Cook"
	amanda  = "Amanda Cook"
)

var day = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func row(k Kind, pts int, name string, number, players int) Row {
	return Row{Outcome: k, Points: pts, Name: name, GameNumber: number, Date: day.AddDate(0, 0, number), NumPlayers: players}
}

// randomRows builds a row set over a small name pool so that pairs collide often.
func randomRows(f *gofakeit.Faker, n int) []Row {
	names := []string{clayton, amanda, "Ruth Cook", "Dale Cook"}
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Outcome:    Kinds[f.Number(0, len(Kinds)-1)],
			Points:     f.Number(0, 120),
			Name:       names[f.Number(0, len(names)-1)],
			GameNumber: f.Number(1, n/2+1),
			Date:       f.DateRange(day, day.AddDate(1, 0, 0)),
			NumPlayers: f.Number(2, 4),
		}
	}
	return rows
}

func TestFilterParticipantsScenarioA(t *testing.T) {
	rows := []Row{
		row(Win, 10, clayton, 1, 2),
		row(Lose, 0, amanda, 1, 2),
	}

	got := FilterParticipants(rows, clayton, amanda, true)
	require.Len(t, got, 2)

	s := Summarize(got, clayton, amanda)
	assert.Equal(t, Summary{TotalGames: 1, WinsA: 1, WinsB: 0, Ties: 0}, s)
}

func TestFilterParticipantsScenarioB(t *testing.T) {
	rows := []Row{row(Win, 10, clayton, 1, 2)}

	got := FilterParticipants(rows, clayton, amanda, true)
	assert.Empty(t, got)
	assert.Equal(t, Summary{}, Summarize(got, clayton, amanda))
}

func TestFilterParticipantsScenarioC(t *testing.T) {
	rows := []Row{
		row(Win, 30, clayton, 1, 3),
		row(Lose, 12, amanda, 1, 3),
		row(Lose, 8, "Ruth Cook", 1, 3),
	}

	assert.Empty(t, FilterParticipants(rows, clayton, amanda, true))

	got := FilterParticipants(rows, clayton, amanda, false)
	if diff := cmp.Diff(rows[:2], got); diff != "" {
		t.Fatalf("unexpected rows (-want +got):\n%s", diff)
	}
}

func TestFilterParticipantsDropsAnomalies(t *testing.T) {
	tests := []struct {
		name string
		rows []Row
	}{
		{
			name: "only one named player",
			rows: []Row{row(Win, 5, amanda, 4, 2), row(Lose, 1, "Ruth Cook", 4, 2)},
		},
		{
			name: "duplicated outcome",
			rows: []Row{row(Win, 5, amanda, 4, 2), row(Lose, 1, clayton, 4, 2), row(Lose, 1, clayton, 4, 2)},
		},
		{
			name: "no named players",
			rows: []Row{row(Win, 5, "Ruth Cook", 4, 2), row(Lose, 1, "Dale Cook", 4, 2)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, FilterParticipants(tt.rows, clayton, amanda, false))
		})
	}
}

func TestFilterParticipantsSameName(t *testing.T) {
	rows := []Row{row(Win, 10, clayton, 1, 2), row(Lose, 0, amanda, 1, 2)}
	assert.Empty(t, FilterParticipants(rows, clayton, clayton, false))
}

func TestFilterParticipantsProperties(t *testing.T) {
	f := gofakeit.New(42)
	for i := 0; i < 50; i++ {
		rows := randomRows(f, 40)
		for _, exactlyTwo := range []bool{false, true} {
			got := FilterParticipants(rows, clayton, amanda, exactlyTwo)

			counts := make(map[int]int)
			for _, r := range got {
				counts[r.GameNumber]++
				assert.Contains(t, []string{clayton, amanda}, r.Name)
				if exactlyTwo {
					assert.Equal(t, 2, r.NumPlayers)
				}
			}
			for n, c := range counts {
				assert.Equalf(t, 2, c, "game %d", n)
			}

			again := FilterParticipants(rows, clayton, amanda, exactlyTwo)
			if diff := cmp.Diff(got, again); diff != "" {
				t.Fatalf("filter is not idempotent (-first +second):\n%s", diff)
			}

			assert.Equal(t, len(counts), Summarize(got, clayton, amanda).TotalGames)
		}
	}
}

func TestSummarizeTies(t *testing.T) {
	rows := []Row{
		row(Tie, 7, clayton, 3, 2),
		row(Tie, 7, amanda, 3, 2),
		row(Win, 9, amanda, 2, 2),
		row(Lose, 4, clayton, 2, 2),
	}
	assert.Equal(t, Summary{TotalGames: 2, WinsA: 0, WinsB: 1, Ties: 1}, Summarize(rows, clayton, amanda))
}

func TestSortOrder(t *testing.T) {
	rows := []Row{
		row(Lose, 1, amanda, 1, 2),
		row(Win, 2, clayton, 1, 2),
		row(Tie, 3, clayton, 2, 2),
		row(Tie, 3, amanda, 2, 2),
		row(Lose, 4, clayton, 3, 2),
		row(Win, 5, amanda, 3, 2),
	}
	Sort(rows)

	want := []Row{
		row(Win, 5, amanda, 3, 2),
		row(Lose, 4, clayton, 3, 2),
		row(Tie, 3, clayton, 2, 2),
		row(Tie, 3, amanda, 2, 2),
		row(Win, 2, clayton, 1, 2),
		row(Lose, 1, amanda, 1, 2),
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
}

func TestSortIsStable(t *testing.T) {
	first := row(Lose, 1, amanda, 9, 3)
	second := row(Lose, 2, clayton, 9, 3)
	rows := []Row{first, row(Win, 0, "Ruth Cook", 9, 3), second}
	Sort(rows)

	assert.Equal(t, first, rows[1])
	assert.Equal(t, second, rows[2])
}

func TestBuild(t *testing.T) {
	rows := []Row{
		row(Lose, 0, amanda, 1, 2),
		row(Win, 10, clayton, 1, 2),
		row(Win, 40, amanda, 2, 3),
		row(Lose, 20, clayton, 2, 3),
		row(Lose, 10, "Ruth Cook", 2, 3),
	}
	pair := Pair{A: clayton, B: amanda}

	all := Build(rows, pair, false)
	assert.Equal(t, Header, all.Header)
	assert.Equal(t, Summary{TotalGames: 2, WinsA: 1, WinsB: 1}, all.Summary)
	require.Len(t, all.Rows, 4)
	assert.Equal(t, 2, all.Rows[0].GameNumber)
	assert.Equal(t, Win, all.Rows[0].Outcome)

	oneOnOne := Build(rows, pair, true)
	assert.True(t, oneOnOne.ExactlyTwo)
	assert.Equal(t, Summary{TotalGames: 1, WinsA: 1}, oneOnOne.Summary)
}

func TestBuildEmpty(t *testing.T) {
	r := Build(nil, Pair{A: clayton, B: amanda}, true)
	assert.Empty(t, r.Rows)
	assert.Equal(t, Summary{}, r.Summary)
}

func TestTable(t *testing.T) {
	table := Table([]Row{row(Win, 10, clayton, 1, 2)})
	want := [][]string{
		{"Outcome", "Points", "Name", "Game Number", "Date", "Number of Players"},
		{"Win", "10", clayton, "1", "2024-01-02", "2"},
	}
	assert.Equal(t, want, table)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("Tie")
	assert.True(t, ok)
	assert.Equal(t, Tie, k)

	_, ok = ParseKind("win")
	assert.False(t, ok)
}
