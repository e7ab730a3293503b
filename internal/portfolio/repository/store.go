// Package repository implements the section record store and profile store
// on top of the sheets workbook. Tenant isolation is enforced here by
// filtering before every mutation — the backend itself has no concept of
// per-row ownership.
package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sheetfolio/portfolio-backend/internal/portfolio/domain"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/schema"
	"github.com/sheetfolio/portfolio-backend/internal/retry"
	"github.com/sheetfolio/portfolio-backend/internal/sheets"
)

// SectionStore is the CRUD engine for portfolio sections. Record addressing
// is positional: an index counts only the tenant's own rows, in sheet order,
// as of the listing performed inside the call. Callers must serialize a
// tenant's edits; two racing mutations against the same section can target
// the wrong row.
type SectionStore struct {
	api      sheets.API
	reg      *schema.Registry
	prov     *Provisioner
	log      *zap.Logger
	retryCfg retry.Config
}

func NewSectionStore(api sheets.API, reg *schema.Registry, prov *Provisioner, log *zap.Logger) *SectionStore {
	return &SectionStore{api: api, reg: reg, prov: prov, log: log, retryCfg: retry.Defaults}
}

// tenantRow pairs a row's cells with its absolute 1-based sheet position.
type tenantRow struct {
	absRow int
	cells  map[string]string
}

func (s *SectionStore) readSheet(ctx context.Context, sheet string) ([][]string, error) {
	rows, err := retry.Do(ctx, s.log, s.retryCfg, "sheets.read", func() ([][]string, error) {
		return s.api.ReadRange(ctx, sheet)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return rows, nil
}

// tenantRows filters a sheet down to one tenant's rows, case-insensitively,
// preserving sheet order.
func tenantRows(rows [][]string, tenant string) []tenantRow {
	if len(rows) == 0 {
		return nil
	}
	header := rows[0]
	var out []tenantRow
	for i, row := range rows[1:] {
		cells := rowMap(header, row)
		if !strings.EqualFold(cells[schema.UsernameField], tenant) {
			continue
		}
		out = append(out, tenantRow{absRow: i + 2, cells: cells})
	}
	return out
}

// List returns every record of the section belonging to the tenant, in
// stable sheet order. Rows that fail schema validation come back degraded
// rather than dropped.
func (s *SectionStore) List(ctx context.Context, section, tenant string) ([]domain.Record, error) {
	def, err := s.reg.Lookup(section)
	if err != nil {
		return nil, err
	}

	if err := s.prov.EnsureSheet(ctx, def); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	rows, err := s.readSheet(ctx, def.Sheet)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Record, 0)
	for _, tr := range tenantRows(rows, tenant) {
		fields, issues := schema.NormalizeRow(def, tr.cells)
		if len(issues) > 0 {
			s.log.Warn("returning degraded record",
				zap.String("section", section),
				zap.String("tenant", tenant),
				zap.Int("row", tr.absRow),
				zap.Strings("issues", issues),
			)
		}
		out = append(out, domain.Record{
			ID:     tr.cells[schema.RecordIDField],
			Fields: fields,
			Issues: issues,
		})
	}
	return out, nil
}

// Add validates the fields and appends one row for the tenant. The append
// carries a generated record id, so a retry after an ambiguous failure can
// detect that the previous attempt actually landed and skip the duplicate.
func (s *SectionStore) Add(ctx context.Context, section, tenant string, fields map[string]any) error {
	def, err := s.reg.Lookup(section)
	if err != nil {
		return err
	}

	merged := cloneFields(fields)
	merged[schema.UsernameField] = tenant
	validated, err := schema.ValidateInput(def, merged)
	if err != nil {
		return err
	}

	if err := s.prov.EnsureSheet(ctx, def); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	rows, err := s.readSheet(ctx, def.Sheet)
	if err != nil {
		return err
	}
	header := def.Headers()
	if len(rows) > 0 {
		header = rows[0]
	}

	id := uuid.NewString()
	row := encodeRow(header, validated, id)

	first := true
	_, err = retry.Do(ctx, s.log, s.retryCfg, "sheets.append", func() (struct{}, error) {
		if !first {
			// The previous attempt may have applied before its response was
			// lost. Skip the append if our id already landed.
			current, rerr := s.api.ReadRange(ctx, def.Sheet)
			if rerr == nil && hasRecordID(current, id) {
				return struct{}{}, nil
			}
		}
		first = false
		return struct{}{}, s.api.AppendRow(ctx, def.Sheet, row)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// resolve locates the tenant's index-th row. The index is only meaningful
// against the listing done here, inside the same call.
func (s *SectionStore) resolve(ctx context.Context, def schema.Definition, tenant string, index int) ([][]string, tenantRow, error) {
	rows, err := s.readSheet(ctx, def.Sheet)
	if err != nil {
		return nil, tenantRow{}, err
	}
	owned := tenantRows(rows, tenant)
	if index < 0 || index >= len(owned) {
		return nil, tenantRow{}, fmt.Errorf("%w: %s record %d", domain.ErrNotFound, def.Section, index)
	}
	return rows, owned[index], nil
}

// Update overwrites the tenant's index-th record with the merge of its
// current fields and the supplied ones, after strict validation.
func (s *SectionStore) Update(ctx context.Context, section, tenant string, index int, fields map[string]any) error {
	def, err := s.reg.Lookup(section)
	if err != nil {
		return err
	}

	if err := s.prov.EnsureSheet(ctx, def); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	rows, target, err := s.resolve(ctx, def, tenant, index)
	if err != nil {
		return err
	}

	current, _ := schema.NormalizeRow(def, target.cells)
	merged := cloneFields(current)
	for k, v := range fields {
		merged[k] = v
	}
	merged[schema.UsernameField] = tenant

	validated, err := schema.ValidateInput(def, merged)
	if err != nil {
		return err
	}

	id := target.cells[schema.RecordIDField]
	if id == "" {
		// Rows written before id columns existed get one on first touch.
		id = uuid.NewString()
	}

	row := encodeRow(rows[0], validated, id)
	rng := fmt.Sprintf("%s!A%d", def.Sheet, target.absRow)
	_, err = retry.Do(ctx, s.log, s.retryCfg, "sheets.update", func() (struct{}, error) {
		return struct{}{}, s.api.UpdateRange(ctx, rng, [][]string{row})
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// Delete physically removes the tenant's index-th record.
func (s *SectionStore) Delete(ctx context.Context, section, tenant string, index int) error {
	def, err := s.reg.Lookup(section)
	if err != nil {
		return err
	}

	if err := s.prov.EnsureSheet(ctx, def); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	_, target, err := s.resolve(ctx, def, tenant, index)
	if err != nil {
		return err
	}

	_, err = retry.Do(ctx, s.log, s.retryCfg, "sheets.delete", func() (struct{}, error) {
		return struct{}{}, s.api.DeleteRow(ctx, def.Sheet, target.absRow)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}
