package http

import (
	"go.uber.org/zap"

	"github.com/sheetfolio/portfolio-backend/internal/auth"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/repository"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/service"
)

// Handler bundles the dependencies for the portfolio HTTP endpoints.
type Handler struct {
	store    *repository.SectionStore
	profiles *repository.ProfileStore
	agg      *service.Aggregator
	sessions *auth.Sessions
	log      *zap.Logger
}

func New(
	store *repository.SectionStore,
	profiles *repository.ProfileStore,
	agg *service.Aggregator,
	sessions *auth.Sessions,
	log *zap.Logger,
) *Handler {
	return &Handler{
		store:    store,
		profiles: profiles,
		agg:      agg,
		sessions: sessions,
		log:      log,
	}
}
