// Package service assembles the portfolio read model consumed by the page
// renderer and the export endpoint.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sheetfolio/portfolio-backend/internal/portfolio/domain"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/schema"
)

// ProfileReader is the profile-store surface the aggregator needs.
type ProfileReader interface {
	Fetch(ctx context.Context, tenant string) (*domain.Profile, error)
}

// SectionLister is the record-store surface the aggregator needs.
type SectionLister interface {
	List(ctx context.Context, section, tenant string) ([]domain.Record, error)
}

// Aggregator fans a single read out across the profile and every registered
// section. The result is assembled fresh per call and is not a snapshot:
// each section list reflects the backend at the moment of its own fetch.
type Aggregator struct {
	profiles ProfileReader
	sections SectionLister
	reg      *schema.Registry
	log      *zap.Logger
}

func NewAggregator(profiles ProfileReader, sections SectionLister, reg *schema.Registry, log *zap.Logger) *Aggregator {
	return &Aggregator{profiles: profiles, sections: sections, reg: reg, log: log}
}

// Load returns the tenant's full portfolio, or domain.ErrNotFound when no
// profile exists for the tenant.
func (a *Aggregator) Load(ctx context.Context, tenant string) (*domain.PortfolioReadModel, error) {
	profile, err := a.profiles.Fetch(ctx, tenant)
	if err != nil {
		return nil, err
	}

	sections := make(map[string][]domain.Record, len(a.reg.Sections()))
	for _, section := range a.reg.Sections() {
		records, err := a.sections.List(ctx, section, tenant)
		if err != nil {
			return nil, err
		}
		sections[section] = records
	}

	return &domain.PortfolioReadModel{Profile: profile, Sections: sections}, nil
}
