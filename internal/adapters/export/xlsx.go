// Package export renders stored day results as spreadsheets for the
// tournament organisers.
package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tbg-racing/rankingsaver/internal/domain/types"
	"github.com/xuri/excelize/v2"
)

// ErrNoRounds is returned when there is nothing to export.
var ErrNoRounds = errors.New("no rounds to export")

// ErrExport wraps spreadsheet failures.
var ErrExport = errors.New("export failed")

const (
	maxSheetName  = 31
	headerRow     = 4
	firstDataRow  = headerRow + 1
	nickColWidth  = 32
	otherColWidth = 16
)

// WriteXLSX writes one sheet per round, in stored order.
func WriteXLSX(w io.Writer, day types.DayResults) error {
	if len(day.RoundResults) == 0 {
		return ErrNoRounds
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("%w: style: %w", ErrExport, err)
	}

	used := make(map[string]struct{}, len(day.RoundResults))
	first := f.GetSheetName(f.GetActiveSheetIndex())
	for i, round := range day.RoundResults {
		name := uniqueSheetName(SheetName(i+1, round.TrackName), used)
		if i == 0 {
			if err := f.SetSheetName(first, name); err != nil {
				return fmt.Errorf("%w: sheet %q: %w", ErrExport, name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("%w: sheet %q: %w", ErrExport, name, err)
		}
		if err := writeRound(f, name, round, bold); err != nil {
			return fmt.Errorf("%w: sheet %q: %w", ErrExport, name, err)
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	return nil
}

func writeRound(f *excelize.File, sheet string, round types.RoundResult, bold int) error {
	rows := [][]interface{}{
		{"Track", round.TrackName},
		{"Raced at (UTC)", round.RacedAtUtc},
	}
	for i, row := range rows {
		if err := f.SetSheetRow(sheet, "A"+strconv.Itoa(i+1), &row); err != nil {
			return err
		}
	}

	header := []interface{}{"Rank", "Nick", "Best time"}
	if err := f.SetSheetRow(sheet, "A"+strconv.Itoa(headerRow), &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A"+strconv.Itoa(headerRow), "C"+strconv.Itoa(headerRow), bold); err != nil {
		return err
	}

	for i, r := range round.RacerResults {
		axis, err := excelize.CoordinatesToCellName(1, firstDataRow+i)
		if err != nil {
			return err
		}
		row := []interface{}{r.Rank, r.Nick}
		if r.HasTime() {
			row = append(row, r.BestTime)
		}
		if err := f.SetSheetRow(sheet, axis, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", nickColWidth); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "C", "C", otherColWidth)
}

// SheetName builds a worksheet name from the round position and track.
// Characters Excel rejects are replaced and the result is capped at 31
// characters. Excel also rejects a leading or trailing apostrophe.
func SheetName(n int, track string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(track))
	clean = strings.Trim(clean, "'")

	name := strconv.Itoa(n)
	if clean != "" {
		name += " " + clean
	}
	return strings.TrimRight(truncate(name, maxSheetName), "'")
}

func uniqueSheetName(name string, used map[string]struct{}) string {
	candidate := name
	for i := 2; ; i++ {
		key := strings.ToLower(candidate)
		if _, ok := used[key]; !ok {
			used[key] = struct{}{}
			return candidate
		}
		suffix := " (" + strconv.Itoa(i) + ")"
		candidate = strings.TrimRight(truncate(name, maxSheetName-utf8.RuneCountInString(suffix)), "'") + suffix
	}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
