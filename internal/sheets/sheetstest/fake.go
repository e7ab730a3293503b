// Package sheetstest provides an in-memory sheets.API for tests.
package sheetstest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Fake is an in-memory workbook. It understands the two range shapes the
// repositories use: a bare sheet name for whole-sheet reads and
// "Sheet!A<row>" for single-row writes.
type Fake struct {
	mu     sync.Mutex
	titles []string
	rows   map[string][][]string

	// Err, when set, is returned by every call.
	Err error
	// LoseNextAppend makes the next AppendRow apply its row and still return
	// an error, simulating a response lost in transit. Cleared after use.
	LoseNextAppend error
	// Calls counts every API call made, including failed ones.
	Calls int
}

func NewFake() *Fake {
	return &Fake{rows: make(map[string][][]string)}
}

// Seed installs a sheet with the given rows, creating it if needed.
func (f *Fake) Seed(sheet string, rows [][]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[sheet]; !ok {
		f.titles = append(f.titles, sheet)
	}
	f.rows[sheet] = rows
}

// Rows returns a copy of a sheet's current rows.
func (f *Fake) Rows(sheet string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	src := f.rows[sheet]
	out := make([][]string, len(src))
	for i, r := range src {
		out[i] = append([]string(nil), r...)
	}
	return out
}

func (f *Fake) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	return f.Err
}

func (f *Fake) ListSheets(ctx context.Context) ([]string, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.titles...), nil
}

func (f *Fake) AddSheet(ctx context.Context, title string) error {
	if err := f.begin(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[title]; ok {
		return nil
	}
	f.titles = append(f.titles, title)
	f.rows[title] = nil
	return nil
}

func (f *Fake) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	if err := f.begin(); err != nil {
		return nil, err
	}
	sheet, start, err := parseRange(rng)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.rows[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %q does not exist", sheet)
	}
	if start > len(rows) {
		return nil, nil
	}
	src := rows[start-1:]
	out := make([][]string, len(src))
	for i, r := range src {
		out[i] = append([]string(nil), r...)
	}
	return out, nil
}

func (f *Fake) UpdateRange(ctx context.Context, rng string, values [][]string) error {
	if err := f.begin(); err != nil {
		return err
	}
	sheet, start, err := parseRange(rng)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.rows[sheet]
	if !ok {
		return fmt.Errorf("sheet %q does not exist", sheet)
	}
	for i, row := range values {
		at := start - 1 + i
		for at >= len(rows) {
			rows = append(rows, nil)
		}
		rows[at] = append([]string(nil), row...)
	}
	f.rows[sheet] = rows
	return nil
}

func (f *Fake) AppendRow(ctx context.Context, sheet string, row []string) error {
	if err := f.begin(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[sheet]; !ok {
		return fmt.Errorf("sheet %q does not exist", sheet)
	}
	f.rows[sheet] = append(f.rows[sheet], append([]string(nil), row...))
	if err := f.LoseNextAppend; err != nil {
		f.LoseNextAppend = nil
		return err
	}
	return nil
}

func (f *Fake) DeleteRow(ctx context.Context, sheet string, row int) error {
	if err := f.begin(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.rows[sheet]
	if !ok {
		return fmt.Errorf("sheet %q does not exist", sheet)
	}
	if row < 1 || row > len(rows) {
		return fmt.Errorf("row %d out of range for sheet %q", row, sheet)
	}
	f.rows[sheet] = append(rows[:row-1], rows[row:]...)
	return nil
}

// parseRange accepts "Sheet" (whole sheet, start row 1) or "Sheet!A<row>".
func parseRange(rng string) (sheet string, startRow int, err error) {
	sheet, ref, found := strings.Cut(rng, "!")
	if !found {
		return sheet, 1, nil
	}
	ref, _, _ = strings.Cut(ref, ":")
	digits := strings.TrimLeft(ref, "ABCDEFGHIJKLMNOPQRSTUVWXYZ")
	if digits == "" {
		return sheet, 1, nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return "", 0, fmt.Errorf("unsupported range %q", rng)
	}
	return sheet, n, nil
}
