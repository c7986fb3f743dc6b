package syncer

import (
	"context"

	"github.com/robfig/cron/v3"

	"platsbanken-sync/internal/config"
	"platsbanken-sync/internal/logging"
)

// Scheduler runs incremental syncs on a cron schedule. A failed run is
// logged and swallowed so the schedule keeps ticking.
type Scheduler struct {
	cron       *cron.Cron
	syncer     *Syncer
	spec       string
	runOnStart bool
	logger     logging.Logger
}

// NewScheduler creates a scheduler around the given syncer.
func NewScheduler(cfg *config.Config, s *Syncer) *Scheduler {
	return &Scheduler{
		cron:       cron.New(),
		syncer:     s,
		spec:       cfg.Sync.CronSpec,
		runOnStart: cfg.Sync.RunOnStart,
		logger:     logging.GetGlobalLogger(),
	}
}

// Start registers the cron entry and begins ticking. When runOnStart is set
// an initial sync fires immediately in the background.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runOnce); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("Sync scheduler started", map[string]interface{}{
		"cron": s.spec,
	})

	if s.runOnStart {
		go s.runOnce()
	}

	return nil
}

// Stop halts the schedule and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Sync scheduler stopped")
}

func (s *Scheduler) runOnce() {
	summary, err := s.syncer.Run(context.Background())
	if err != nil {
		s.logger.Error("Scheduled sync failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	s.logger.Info("Scheduled sync finished", map[string]interface{}{
		"imported": summary.Imported,
		"removed":  summary.Removed,
		"failed":   summary.Failed,
	})
}
