package syncer

import (
	"context"
	"time"

	"platsbanken-sync/internal/config"
	"platsbanken-sync/internal/logging"
	"platsbanken-sync/internal/transform"
	"platsbanken-sync/pkg/models"
)

// SourceClient fetches raw ads from the upstream feed.
type SourceClient interface {
	Snapshot(ctx context.Context) ([]models.JobAd, error)
	Stream(ctx context.Context, since, until time.Time) ([]models.JobAd, error)
}

// AdImporter persists transformed ads and removal marks.
type AdImporter interface {
	Upsert(ctx context.Context, job *models.TransformedJob) (string, error)
	MarkRemoved(ctx context.Context, sourceID string, removedAt *time.Time) (bool, error)
	Watermark(ctx context.Context) (time.Time, error)
}

// Syncer orchestrates one sync run: resolve the watermark, fetch the changed
// window, process removals, then transform and import active ads.
type Syncer struct {
	client      SourceClient
	transformer *transform.Transformer
	importer    AdImporter

	concurrency     int
	coldStartWindow time.Duration
	runTimeout      time.Duration

	logger logging.Logger
}

// NewSyncer wires the pipeline stages together.
func NewSyncer(cfg *config.Config, client SourceClient, transformer *transform.Transformer, importer AdImporter) *Syncer {
	return &Syncer{
		client:          client,
		transformer:     transformer,
		importer:        importer,
		concurrency:     cfg.Sync.Concurrency,
		coldStartWindow: cfg.JobStream.ColdStartWindow,
		runTimeout:      cfg.Sync.RunTimeout,
		logger:          logging.GetGlobalLogger(),
	}
}

// Run performs one incremental sync. The watermark is recomputed from the
// store every run; a store that has never synced falls back to a window of
// coldStartWindow ending now.
func (s *Syncer) Run(ctx context.Context) (*models.SyncSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	since, err := s.importer.Watermark(ctx)
	if err != nil {
		return nil, err
	}
	if since.IsZero() {
		since = time.Now().Add(-s.coldStartWindow)
		s.logger.Info("No previous sync found, using cold-start window", map[string]interface{}{
			"since": since.Format(time.RFC3339),
		})
	}
	until := time.Now()

	ads, err := s.client.Stream(ctx, since, until)
	if err != nil {
		return nil, err
	}

	return s.process(ctx, ads)
}

// RunSnapshot imports the full upstream dump. Used for cold starts and
// recovery; removals are absent from snapshots so only imports happen.
func (s *Syncer) RunSnapshot(ctx context.Context) (*models.SyncSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	ads, err := s.client.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	return s.process(ctx, ads)
}

// process partitions the batch and works through it with bounded
// concurrency. Removals run before imports so an ad that was removed and
// re-published inside one window ends up active.
func (s *Syncer) process(ctx context.Context, ads []models.JobAd) (*models.SyncSummary, error) {
	if len(ads) == 0 {
		s.logger.Info("No ads changed in window")
		return &models.SyncSummary{}, nil
	}

	var removed, active []models.JobAd
	for _, ad := range ads {
		if ad.IsRemoved() {
			removed = append(removed, ad)
		} else {
			active = append(active, ad)
		}
	}

	s.logger.Info("Processing ad batch", map[string]interface{}{
		"total":   len(ads),
		"active":  len(active),
		"removed": len(removed),
	})

	collector := &summaryCollector{}

	forEachAd(ctx, s.concurrency, removed, func(ad models.JobAd) {
		s.processRemoval(ctx, ad, collector)
	})
	forEachAd(ctx, s.concurrency, active, func(ad models.JobAd) {
		s.processActive(ctx, ad, collector)
	})

	summary := collector.result()
	s.logger.Info("Sync batch finished", map[string]interface{}{
		"imported": summary.Imported,
		"removed":  summary.Removed,
		"failed":   summary.Failed,
	})

	return summary, nil
}

func (s *Syncer) processRemoval(ctx context.Context, ad models.JobAd, collector *summaryCollector) {
	var removedAt *time.Time
	if ad.RemovedDate != nil {
		if t, ok := transform.ParseTime(*ad.RemovedDate); ok {
			removedAt = &t
		}
	}

	found, err := s.importer.MarkRemoved(ctx, ad.ID, removedAt)
	if err != nil {
		s.logger.Error("Failed to mark ad removed", map[string]interface{}{
			"ad_id": ad.ID,
			"error": err.Error(),
		})
		collector.failed()
		return
	}
	if !found {
		// Removal of an ad we never imported is a no-op.
		return
	}
	collector.removed()
}

func (s *Syncer) processActive(ctx context.Context, ad models.JobAd, collector *summaryCollector) {
	job, err := s.transformer.Transform(&ad)
	if err != nil {
		if transform.IsValidationError(err) {
			s.logger.Warn("Skipping invalid ad", map[string]interface{}{
				"ad_id": ad.ID,
				"error": err.Error(),
			})
		} else {
			s.logger.Error("Transform failed", map[string]interface{}{
				"ad_id": ad.ID,
				"error": err.Error(),
			})
		}
		collector.failed()
		return
	}

	if _, err := s.importer.Upsert(ctx, job); err != nil {
		s.logger.Error("Import failed", map[string]interface{}{
			"ad_id": ad.ID,
			"error": err.Error(),
		})
		collector.failed()
		return
	}

	collector.imported()
}
