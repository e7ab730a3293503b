package bootstrap

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httpapi "github.com/sheetfolio/portfolio-backend/internal/api/http"
	"github.com/sheetfolio/portfolio-backend/internal/auth"
	portfoliohttp "github.com/sheetfolio/portfolio-backend/internal/portfolio/http"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/repository"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/schema"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/service"
	"github.com/sheetfolio/portfolio-backend/internal/sheets"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Sheets      sheets.API
	Redis       *redis.Client
	SessionTTL  time.Duration
	Log         *zap.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.Default()
	r.Use(cors.Default())

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Redis, dep.Sheets)
	healthHandler.RegisterRoutes(r)

	reg := schema.NewRegistry()
	prov := repository.NewProvisioner(dep.Sheets, reg, dep.Log)
	store := repository.NewSectionStore(dep.Sheets, reg, prov, dep.Log)
	profiles := repository.NewProfileStore(dep.Sheets, prov, dep.Log)
	agg := service.NewAggregator(profiles, store, reg, dep.Log)
	sessions := auth.NewSessions(dep.Redis, dep.SessionTTL)

	api := r.Group("/api/v1")
	portfoliohttp.New(store, profiles, agg, sessions, dep.Log).Register(api)

	return r
}
