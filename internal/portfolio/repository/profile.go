package repository

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/sheetfolio/portfolio-backend/internal/portfolio/domain"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/schema"
	"github.com/sheetfolio/portfolio-backend/internal/retry"
	"github.com/sheetfolio/portfolio-backend/internal/sheets"
)

const pinField = "pin"

// profileDefaults populate a fresh row so every column carries a value.
var profileDefaults = map[string]any{
	"theme":           "classic",
	"accent_color":    "#2563eb",
	"public":          true,
	"show_contact":    true,
	"dark_mode":       false,
	"section_order":   []string{},
	"hidden_sections": []string{},
	"custom_sections": "[]",
}

// ProfileStore manages the single-row-per-tenant Users sheet: identity,
// credentials, theme and layout configuration.
type ProfileStore struct {
	api      sheets.API
	prov     *Provisioner
	log      *zap.Logger
	retryCfg retry.Config
	def      schema.Definition
}

func NewProfileStore(api sheets.API, prov *Provisioner, log *zap.Logger) *ProfileStore {
	return &ProfileStore{
		api:      api,
		prov:     prov,
		log:      log,
		retryCfg: retry.Defaults,
		def:      schema.ProfileDefinition(),
	}
}

// findRow locates the tenant's unique row. Returns the full sheet, the row
// and its absolute position, or domain.ErrNotFound.
func (p *ProfileStore) findRow(ctx context.Context, tenant string) ([][]string, tenantRow, error) {
	rows, err := retry.Do(ctx, p.log, p.retryCfg, "sheets.read", func() ([][]string, error) {
		return p.api.ReadRange(ctx, p.def.Sheet)
	})
	if err != nil {
		return nil, tenantRow{}, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	owned := tenantRows(rows, tenant)
	if len(owned) == 0 {
		return nil, tenantRow{}, fmt.Errorf("%w: profile %q", domain.ErrNotFound, tenant)
	}
	return rows, owned[0], nil
}

// Fetch returns the tenant's profile, soft-validated: a malformed stored row
// still yields a profile built from raw values, with the problems listed in
// Issues.
func (p *ProfileStore) Fetch(ctx context.Context, tenant string) (*domain.Profile, error) {
	if err := p.prov.EnsureSheet(ctx, p.def); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	_, row, err := p.findRow(ctx, tenant)
	if err != nil {
		return nil, err
	}

	profile := p.assemble(row.cells)
	if len(profile.Issues) > 0 {
		p.log.Warn("returning degraded profile",
			zap.String("tenant", tenant),
			zap.Strings("issues", profile.Issues),
		)
	}
	return profile, nil
}

func (p *ProfileStore) assemble(cells map[string]string) *domain.Profile {
	fields, issues := schema.NormalizeRow(p.def, cells)

	profile := &domain.Profile{
		Username:       asText(fields, schema.UsernameField),
		FullName:       asText(fields, "full_name"),
		Headline:       asText(fields, "headline"),
		Bio:            asText(fields, "bio"),
		Email:          asText(fields, "email"),
		AvatarURL:      asText(fields, "avatar_url"),
		Theme:          asText(fields, "theme"),
		AccentColor:    asText(fields, "accent_color"),
		Public:         asFlag(fields, "public"),
		ShowContact:    asFlag(fields, "show_contact"),
		DarkMode:       asFlag(fields, "dark_mode"),
		SectionOrder:   asList(fields, "section_order"),
		HiddenSections: asList(fields, "hidden_sections"),
	}

	if blob := strings.TrimSpace(asText(fields, "custom_sections")); blob != "" {
		var sections []domain.CustomSection
		if err := json.Unmarshal([]byte(blob), &sections); err != nil {
			issues = append(issues, fmt.Sprintf("custom_sections: %v", err))
		} else {
			profile.CustomSections = sections
		}
	}

	// Credential issues stay internal; the renderer has no use for them.
	profile.Issues = withoutPrefix(issues, pinField+":")
	return profile
}

// Create appends the tenant's profile row with full default population. The
// duplicate check is the caller's job (fetch first, then create); the store
// does not enforce it atomically.
func (p *ProfileStore) Create(ctx context.Context, tenant string, fields map[string]any) error {
	merged := cloneFields(profileDefaults)
	for k, v := range fields {
		merged[k] = v
	}
	merged[schema.UsernameField] = tenant

	validated, err := schema.ValidateInput(p.def, merged)
	if err != nil {
		return err
	}

	hash, err := hashPIN(validated[pinField].(string))
	if err != nil {
		return err
	}
	validated[pinField] = hash

	if err := p.prov.EnsureSheet(ctx, p.def); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	rows, err := retry.Do(ctx, p.log, p.retryCfg, "sheets.read", func() ([][]string, error) {
		return p.api.ReadRange(ctx, p.def.Sheet)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	header := p.def.Headers()
	if len(rows) > 0 {
		header = rows[0]
	}

	id := uuid.NewString()
	row := encodeRow(header, validated, id)

	first := true
	_, err = retry.Do(ctx, p.log, p.retryCfg, "sheets.append", func() (struct{}, error) {
		if !first {
			current, rerr := p.api.ReadRange(ctx, p.def.Sheet)
			if rerr == nil && hasRecordID(current, id) {
				return struct{}{}, nil
			}
		}
		first = false
		return struct{}{}, p.api.AppendRow(ctx, p.def.Sheet, row)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// Update merge-overwrites only the supplied fields on the tenant's row. A
// supplied pin is re-hashed before it is stored.
func (p *ProfileStore) Update(ctx context.Context, tenant string, fields map[string]any) error {
	if err := p.prov.EnsureSheet(ctx, p.def); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	rows, target, err := p.findRow(ctx, tenant)
	if err != nil {
		return err
	}

	current, _ := schema.NormalizeRow(p.def, target.cells)
	merged := cloneFields(current)
	for k, v := range fields {
		merged[k] = v
	}
	merged[schema.UsernameField] = target.cells[schema.UsernameField]

	pinSupplied := false
	if _, ok := fields[pinField]; ok {
		pinSupplied = true
	}

	validated, err := schema.ValidateInput(p.def, merged)
	if err != nil {
		return err
	}

	if pinSupplied {
		hash, err := hashPIN(validated[pinField].(string))
		if err != nil {
			return err
		}
		validated[pinField] = hash
	} else {
		// Keep the stored hash untouched.
		validated[pinField] = target.cells[pinField]
	}

	row := encodeRow(rows[0], validated, target.cells[schema.RecordIDField])
	rng := fmt.Sprintf("%s!A%d", p.def.Sheet, target.absRow)
	_, err = retry.Do(ctx, p.log, p.retryCfg, "sheets.update", func() (struct{}, error) {
		return struct{}{}, p.api.UpdateRange(ctx, rng, [][]string{row})
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}
	return nil
}

// VerifyPIN checks the supplied PIN against the stored credential. Rows
// predating hashing hold the PIN in cleartext; those are compared in
// constant time and upgraded to a bcrypt hash on success.
func (p *ProfileStore) VerifyPIN(ctx context.Context, tenant, pin string) (bool, error) {
	if err := p.prov.EnsureSheet(ctx, p.def); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrBackendUnavailable, err)
	}

	_, target, err := p.findRow(ctx, tenant)
	if err != nil {
		return false, err
	}

	stored := target.cells[pinField]
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(pin)) == nil, nil
	}

	if subtle.ConstantTimeCompare([]byte(stored), []byte(pin)) != 1 {
		return false, nil
	}

	if err := p.Update(ctx, tenant, map[string]any{pinField: pin}); err != nil {
		// The login still succeeds; the upgrade is retried on the next one.
		p.log.Warn("failed to upgrade legacy pin", zap.String("tenant", tenant), zap.Error(err))
	} else {
		p.log.Info("upgraded legacy pin to hash", zap.String("tenant", tenant))
	}
	return true, nil
}

func hashPIN(pin string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}

func asText(fields map[string]any, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}

func asFlag(fields map[string]any, name string) bool {
	if v, ok := fields[name].(bool); ok {
		return v
	}
	return false
}

func asList(fields map[string]any, name string) []string {
	if v, ok := fields[name].([]string); ok {
		return v
	}
	return nil
}

func withoutPrefix(issues []string, prefix string) []string {
	out := issues[:0:0]
	for _, issue := range issues {
		if !strings.HasPrefix(issue, prefix) {
			out = append(out, issue)
		}
	}
	return out
}
