package cronjob

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/sheetfolio/portfolio-backend/internal/portfolio/repository"
)

// Scheduler re-runs sheet provisioning on a nightly schedule so schema
// additions are healed without waiting for the next tenant mutation.
type Scheduler struct {
	prov *repository.Provisioner
	log  *zap.Logger
}

func NewScheduler(prov *repository.Provisioner, log *zap.Logger) *Scheduler {
	return &Scheduler{prov: prov, log: log}
}

// Start initializes cron tasks.
func (s *Scheduler) Start() {
	c := cron.New(cron.WithSeconds())

	// (3:00 AM)
	_, err := c.AddFunc("0 0 3 * * *", func() {
		s.runNightlyRepair()
	})
	if err != nil {
		s.log.Error("failed to create cron job", zap.Error(err))
		return
	}

	s.log.Info("cron scheduler started (sheet repair nightly at 3:00AM)")
	c.Start()
}

func (s *Scheduler) runNightlyRepair() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	start := time.Now()
	if err := s.prov.EnsureAll(ctx); err != nil {
		s.log.Error("nightly sheet repair failed", zap.Error(err))
		return
	}
	s.log.Info("nightly sheet repair completed", zap.Duration("took", time.Since(start)))
}
