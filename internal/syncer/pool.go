package syncer

import (
	"context"
	"sync"

	"platsbanken-sync/pkg/models"
)

// forEachAd processes ads with a bounded number of goroutines. Processing
// stops handing out new ads once the context is cancelled; in-flight ads are
// allowed to finish.
func forEachAd(ctx context.Context, concurrency int, ads []models.JobAd, fn func(models.JobAd)) {
	if concurrency < 1 {
		concurrency = 1
	}

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, ad := range ads {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(ad models.JobAd) {
			defer wg.Done()
			defer func() { <-sem }()
			fn(ad)
		}(ad)
	}

	wg.Wait()
}

// summaryCollector aggregates per-ad outcomes from concurrent workers.
type summaryCollector struct {
	mu      sync.Mutex
	summary models.SyncSummary
}

func (c *summaryCollector) imported() {
	c.mu.Lock()
	c.summary.Imported++
	c.mu.Unlock()
}

func (c *summaryCollector) removed() {
	c.mu.Lock()
	c.summary.Removed++
	c.mu.Unlock()
}

func (c *summaryCollector) failed() {
	c.mu.Lock()
	c.summary.Failed++
	c.mu.Unlock()
}

func (c *summaryCollector) result() *models.SyncSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.summary
	return &s
}
