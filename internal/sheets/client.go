// Package sheets wraps the Google Sheets workbook that backs the portfolio
// store. One Client is constructed at process start and shared by every
// repository; it carries no per-call state, so concurrent use is safe, but it
// is a single rate-limited channel to the backend.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/sheetfolio/portfolio-backend/internal/portfolio/domain"
)

// API is the narrow surface repositories depend on. Row indexes are 1-based
// absolute positions within the sheet, header row included.
type API interface {
	ListSheets(ctx context.Context) ([]string, error)
	AddSheet(ctx context.Context, title string) error
	ReadRange(ctx context.Context, rng string) ([][]string, error)
	UpdateRange(ctx context.Context, rng string, values [][]string) error
	AppendRow(ctx context.Context, sheet string, row []string) error
	DeleteRow(ctx context.Context, sheet string, row int) error
}

type Config struct {
	CredentialsPath string
	SpreadsheetID   string
	RateLimitRPS    int
}

// Client implements API against one spreadsheet using a service account.
type Client struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	limiter       *rate.Limiter

	mu       sync.Mutex
	sheetIDs map[string]int64
}

// New builds the workbook client and verifies it can reach the spreadsheet.
// Missing credentials or spreadsheet ID is a configuration error; a failed
// connection or first metadata read means the backend is unavailable.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.CredentialsPath == "" {
		return nil, fmt.Errorf("%w: credentials path not set", domain.ErrConfiguration)
	}
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: spreadsheet id not set", domain.ErrConfiguration)
	}

	rps := cfg.RateLimitRPS
	if rps <= 0 {
		rps = 1
	}

	svc, err := sheetsapi.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsPath),
		option.WithScopes(sheetsapi.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	c := &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		limiter:       rate.NewLimiter(rate.Limit(rps), rps),
		sheetIDs:      make(map[string]int64),
	}

	if _, err := c.refreshSheetIDs(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return c, nil
}

func (c *Client) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// refreshSheetIDs re-reads workbook metadata and rebuilds the title → sheetId
// map. Returns the titles in workbook order.
func (c *Client) refreshSheetIDs(ctx context.Context) ([]string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}

	titles := make([]string, 0, len(ss.Sheets))
	ids := make(map[string]int64, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties == nil {
			continue
		}
		titles = append(titles, s.Properties.Title)
		ids[s.Properties.Title] = s.Properties.SheetId
	}

	c.mu.Lock()
	c.sheetIDs = ids
	c.mu.Unlock()

	return titles, nil
}

func (c *Client) ListSheets(ctx context.Context) ([]string, error) {
	return c.refreshSheetIDs(ctx)
}

func (c *Client) AddSheet(ctx context.Context, title string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			AddSheet: &sheetsapi.AddSheetRequest{
				Properties: &sheetsapi.SheetProperties{Title: title},
			},
		}},
	}
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		// A concurrent provisioner may have won the race; creation is
		// idempotent from the caller's perspective.
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == 400 {
			if _, rerr := c.refreshSheetIDs(ctx); rerr == nil {
				c.mu.Lock()
				_, exists := c.sheetIDs[title]
				c.mu.Unlock()
				if exists {
					return nil
				}
			}
		}
		return fmt.Errorf("add sheet %q: %w", title, err)
	}

	_, err = c.refreshSheetIDs(ctx)
	return err
}

func (c *Client) ReadRange(ctx context.Context, rng string) ([][]string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	vr, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", rng, err)
	}
	return cellsToStrings(vr.Values), nil
}

func (c *Client) UpdateRange(ctx context.Context, rng string, values [][]string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	vr := &sheetsapi.ValueRange{Values: stringsToCells(values)}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("update %q: %w", rng, err)
	}
	return nil
}

func (c *Client) AppendRow(ctx context.Context, sheet string, row []string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	vr := &sheetsapi.ValueRange{Values: stringsToCells([][]string{row})}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, sheet, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %q: %w", sheet, err)
	}
	return nil
}

func (c *Client) DeleteRow(ctx context.Context, sheet string, row int) error {
	sheetID, err := c.sheetID(ctx, sheet)
	if err != nil {
		return err
	}

	if err := c.wait(ctx); err != nil {
		return err
	}

	req := &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: []*sheetsapi.Request{{
			DeleteDimension: &sheetsapi.DeleteDimensionRequest{
				Range: &sheetsapi.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d of %q: %w", row, sheet, err)
	}
	return nil
}

func (c *Client) sheetID(ctx context.Context, sheet string) (int64, error) {
	c.mu.Lock()
	id, ok := c.sheetIDs[sheet]
	c.mu.Unlock()
	if ok {
		return id, nil
	}

	if _, err := c.refreshSheetIDs(ctx); err != nil {
		return 0, err
	}

	c.mu.Lock()
	id, ok = c.sheetIDs[sheet]
	c.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("sheet %q does not exist", sheet)
	}
	return id, nil
}

func cellsToStrings(values [][]any) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		out[i] = cells
	}
	return out
}

func stringsToCells(values [][]string) [][]any {
	out := make([][]any, len(values))
	for i, row := range values {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
