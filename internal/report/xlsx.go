// Package report renders rivalry reports as spreadsheets and charts.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"tinyrivals/internal/rivalry"
)

// SheetName returns the worksheet name used for a report.
func SheetName(r rivalry.Report) string {
	if r.ExactlyTwo {
		return "One on One"
	}
	return "All Shared Games"
}

// Workbook writes one worksheet per report: the rivalry table followed by
// its summary counts.
func Workbook(reports ...rivalry.Report) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, r := range reports {
		name := SheetName(r)
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %q: %w", name, err)
		}
		if err := writeReport(f, name, r); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeReport(f *excelize.File, sheet string, r rivalry.Report) error {
	line := 1
	for _, cells := range rivalry.Table(r.Rows) {
		if err := setRow(f, sheet, line, toAny(cells)); err != nil {
			return err
		}
		line++
	}

	line++
	summary := [][]any{
		{"Total Games", r.Summary.TotalGames},
		{r.Pair.A + " Wins", r.Summary.WinsA},
		{r.Pair.B + " Wins", r.Summary.WinsB},
		{"Ties", r.Summary.Ties},
	}
	for _, cells := range summary {
		if err := setRow(f, sheet, line, cells); err != nil {
			return err
		}
		line++
	}
	return nil
}

func setRow(f *excelize.File, sheet string, line int, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, line)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d of %q: %w", line, sheet, err)
	}
	return nil
}

func toAny(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}
