// Package rivalry derives head-to-head statistics between two players from
// joined outcome rows. Everything here is a pure function of its input.
package rivalry

import (
	"slices"
	"strconv"
)

// FilterParticipants keeps the games in which both a and b recorded exactly
// one outcome. When requireExactlyTwo is set only games played by exactly two
// players are considered. Games appear in the order they are first seen and
// each surviving row is returned unchanged.
func FilterParticipants(rows []Row, a, b string, requireExactlyTwo bool) []Row {
	groups := make(map[int][]Row)
	var order []int
	for _, r := range rows {
		if r.Name != a && r.Name != b {
			continue
		}
		if requireExactlyTwo && r.NumPlayers != 2 {
			continue
		}
		if _, seen := groups[r.GameNumber]; !seen {
			order = append(order, r.GameNumber)
		}
		groups[r.GameNumber] = append(groups[r.GameNumber], r)
	}

	out := make([]Row, 0, len(rows))
	for _, n := range order {
		g := groups[n]
		if len(g) != 2 {
			continue
		}
		out = append(out, g...)
	}
	return out
}

// Summarize tallies a filtered row set. Ties are counted from b's rows only;
// both rows of a tied game carry Tie so this equals the number of tied games.
func Summarize(rows []Row, a, b string) Summary {
	var s Summary
	games := make(map[int]struct{})
	for _, r := range rows {
		games[r.GameNumber] = struct{}{}
		switch {
		case r.Outcome == Win && r.Name == a:
			s.WinsA++
		case r.Outcome == Win && r.Name == b:
			s.WinsB++
		case r.Outcome == Tie && r.Name == b:
			s.Ties++
		}
	}
	s.TotalGames = len(games)
	return s
}

// Sort orders rows by game number descending, then outcome label descending.
// The label comparison is a plain string comparison. Equal rows keep their
// input order.
func Sort(rows []Row) {
	slices.SortStableFunc(rows, func(x, y Row) int {
		if x.GameNumber != y.GameNumber {
			return y.GameNumber - x.GameNumber
		}
		switch {
		case x.Outcome > y.Outcome:
			return -1
		case x.Outcome < y.Outcome:
			return 1
		}
		return 0
	})
}

// Build filters, sorts and summarizes rows for the given pair.
func Build(rows []Row, pair Pair, requireExactlyTwo bool) Report {
	filtered := FilterParticipants(rows, pair.A, pair.B, requireExactlyTwo)
	Sort(filtered)
	return Report{
		Pair:       pair,
		ExactlyTwo: requireExactlyTwo,
		Header:     slices.Clone(Header),
		Rows:       filtered,
		Summary:    Summarize(filtered, pair.A, pair.B),
	}
}

// DateLayout is the layout used when rendering a game date as text.
const DateLayout = "2006-01-02"

// Cells renders a row as display strings in Header order.
func (r Row) Cells() []string {
	return []string{
		string(r.Outcome),
		strconv.Itoa(r.Points),
		r.Name,
		strconv.Itoa(r.GameNumber),
		r.Date.Format(DateLayout),
		strconv.Itoa(r.NumPlayers),
	}
}

// Table renders rows as a display table with the header row first.
func Table(rows []Row) [][]string {
	t := make([][]string, 0, len(rows)+1)
	t = append(t, slices.Clone(Header))
	for _, r := range rows {
		t = append(t, r.Cells())
	}
	return t
}
