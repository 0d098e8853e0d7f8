package report

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"tinyrivals/internal/rivalry"
)

var (
	colorA    = drawing.ColorFromHex("2f6f4f")
	colorB    = drawing.ColorFromHex("b5651d")
	colorTies = drawing.ColorFromHex("7a7a7a")
)

// Chart renders a PNG bar chart of the report's wins and ties.
func Chart(r rivalry.Report) ([]byte, error) {
	title := fmt.Sprintf("%s vs %s (%d games)", r.Pair.A, r.Pair.B, r.Summary.TotalGames)
	if r.ExactlyTwo {
		title += ", one on one"
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    640,
		Height:   400,
		BarWidth: 80,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: yMax(r.Summary)},
		},
		Bars: []chart.Value{
			{Label: r.Pair.A, Value: float64(r.Summary.WinsA), Style: chart.Style{FillColor: colorA, StrokeColor: colorA}},
			{Label: r.Pair.B, Value: float64(r.Summary.WinsB), Style: chart.Style{FillColor: colorB, StrokeColor: colorB}},
			{Label: "Ties", Value: float64(r.Summary.Ties), Style: chart.Style{FillColor: colorTies, StrokeColor: colorTies}},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	return buf.Bytes(), nil
}

// yMax keeps the axis readable when every bar is zero.
func yMax(s rivalry.Summary) float64 {
	m := max(s.WinsA, s.WinsB, s.Ties)
	if m == 0 {
		return 1
	}
	return float64(m) + 1
}
