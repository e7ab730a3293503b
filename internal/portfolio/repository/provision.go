package repository

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/sheetfolio/portfolio-backend/internal/portfolio/schema"
	"github.com/sheetfolio/portfolio-backend/internal/retry"
	"github.com/sheetfolio/portfolio-backend/internal/sheets"
)

// Provisioner creates missing sheets and repairs header rows so every
// mutation path is safe against partially-initialized state. All operations
// are idempotent; running the provisioner twice is a no-op the second time.
type Provisioner struct {
	api      sheets.API
	reg      *schema.Registry
	log      *zap.Logger
	retryCfg retry.Config
}

func NewProvisioner(api sheets.API, reg *schema.Registry, log *zap.Logger) *Provisioner {
	return &Provisioner{api: api, reg: reg, log: log, retryCfg: retry.Defaults}
}

// EnsureSheet makes sure the definition's sheet exists with every canonical
// header present. New header columns are appended after the existing ones so
// already-written rows keep their positions.
func (p *Provisioner) EnsureSheet(ctx context.Context, def schema.Definition) error {
	titles, err := retry.Do(ctx, p.log, p.retryCfg, "sheets.list", func() ([]string, error) {
		return p.api.ListSheets(ctx)
	})
	if err != nil {
		return err
	}

	if !slices.Contains(titles, def.Sheet) {
		if _, err := retry.Do(ctx, p.log, p.retryCfg, "sheets.add", func() (struct{}, error) {
			return struct{}{}, p.api.AddSheet(ctx, def.Sheet)
		}); err != nil {
			return err
		}
		if err := p.writeHeader(ctx, def.Sheet, def.Headers()); err != nil {
			return err
		}
		p.log.Info("created sheet", zap.String("sheet", def.Sheet))
		return nil
	}

	rows, err := retry.Do(ctx, p.log, p.retryCfg, "sheets.read", func() ([][]string, error) {
		return p.api.ReadRange(ctx, def.Sheet)
	})
	if err != nil {
		return err
	}

	if len(rows) == 0 {
		return p.writeHeader(ctx, def.Sheet, def.Headers())
	}

	existing := rows[0]
	var missing []string
	for _, name := range def.Headers() {
		if !slices.Contains(existing, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	repaired := append(append([]string(nil), existing...), missing...)
	if err := p.writeHeader(ctx, def.Sheet, repaired); err != nil {
		return err
	}
	p.log.Info("repaired sheet header",
		zap.String("sheet", def.Sheet),
		zap.Strings("added", missing),
	)
	return nil
}

func (p *Provisioner) writeHeader(ctx context.Context, sheet string, header []string) error {
	_, err := retry.Do(ctx, p.log, p.retryCfg, "sheets.update", func() (struct{}, error) {
		return struct{}{}, p.api.UpdateRange(ctx, sheet+"!A1", [][]string{header})
	})
	return err
}

// EnsureAll provisions every registered section sheet plus the Users sheet.
func (p *Provisioner) EnsureAll(ctx context.Context) error {
	for _, section := range p.reg.Sections() {
		def, err := p.reg.Lookup(section)
		if err != nil {
			return err
		}
		if err := p.EnsureSheet(ctx, def); err != nil {
			return fmt.Errorf("provision %q: %w", section, err)
		}
	}
	if err := p.EnsureSheet(ctx, schema.ProfileDefinition()); err != nil {
		return fmt.Errorf("provision profiles: %w", err)
	}
	return nil
}
