package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sheetfolio/portfolio-backend/config"
	"github.com/sheetfolio/portfolio-backend/internal/bootstrap"
	"github.com/sheetfolio/portfolio-backend/internal/logger"
	cronjob "github.com/sheetfolio/portfolio-backend/internal/portfolio/cron"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/repository"
	"github.com/sheetfolio/portfolio-backend/internal/portfolio/schema"
	"github.com/sheetfolio/portfolio-backend/internal/sheets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	zlog, err := logger.New(cfg.App.LogLevel, cfg.App.Environment)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()

	client, err := sheets.New(ctx, sheets.Config{
		CredentialsPath: cfg.Sheets.CredentialsPath,
		SpreadsheetID:   cfg.Sheets.SpreadsheetID,
		RateLimitRPS:    cfg.Sheets.RateLimitRPS,
	})
	if err != nil {
		zlog.Fatal("cannot connect workbook", zap.Error(err))
	}

	rdb, err := bootstrap.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		zlog.Fatal("cannot connect redis", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	// Initial provisioning pass. A failure here is not fatal: every mutation
	// re-provisions its own sheet, and the nightly job retries the rest.
	prov := repository.NewProvisioner(client, schema.NewRegistry(), zlog)
	if err := prov.EnsureAll(ctx); err != nil {
		zlog.Warn("startup provisioning incomplete", zap.Error(err))
	}

	cronjob.NewScheduler(prov, zlog).Start()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "portfolio-backend",
		Version:     cfg.App.Version,
		Sheets:      client,
		Redis:       rdb,
		SessionTTL:  cfg.Session.TTL,
		Log:         zlog,
	})

	zlog.Info("listening", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		zlog.Fatal("server stopped", zap.Error(err))
	}
}
