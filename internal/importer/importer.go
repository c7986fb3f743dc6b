package importer

import (
	"context"
	"fmt"
	"time"

	"platsbanken-sync/internal/logging"
	"platsbanken-sync/internal/storage"
	"platsbanken-sync/pkg/models"
)

// Importer is the single write path for job ads. Upserts are idempotent on
// the (source, source_id) key, so re-running a window never duplicates jobs.
type Importer struct {
	store  storage.Store
	source string
	logger logging.Logger
}

// NewImporter creates an importer writing under the given source name.
func NewImporter(store storage.Store, source string) *Importer {
	return &Importer{
		store:  store,
		source: source,
		logger: logging.GetGlobalLogger(),
	}
}

// Upsert persists one transformed job and returns its id. The company is
// resolved first; the job row, its coordinates and its child rows are then
// written in a single transaction so a failed ad leaves no partial job.
func (i *Importer) Upsert(ctx context.Context, job *models.TransformedJob) (string, error) {
	companyID, err := i.store.UpsertCompany(ctx, job.Company)
	if err != nil {
		return "", fmt.Errorf("import of ad %s failed: %w", job.SourceID, err)
	}

	var jobID string
	err = i.store.InTx(ctx, func(tx storage.Store) error {
		existingID, found, err := tx.FindJobIDBySource(ctx, i.source, job.SourceID)
		if err != nil {
			return err
		}

		if found {
			jobID = existingID
			if err := tx.UpdateJob(ctx, jobID, companyID, job); err != nil {
				return err
			}
		} else {
			jobID, err = tx.CreateJob(ctx, companyID, i.source, job)
			if err != nil {
				return err
			}
		}

		if err := tx.SetJobCoordinates(ctx, jobID, job.Coordinates); err != nil {
			return err
		}
		if err := tx.ReplaceJobRequirements(ctx, jobID, job.Requirements); err != nil {
			return err
		}
		return tx.ReplaceJobContacts(ctx, jobID, job.Contacts)
	})
	if err != nil {
		return "", fmt.Errorf("import of ad %s failed: %w", job.SourceID, err)
	}

	i.logger.Debug("Imported job", map[string]interface{}{
		"source_id": job.SourceID,
		"job_id":    jobID,
	})

	return jobID, nil
}

// MarkRemoved flags the job behind sourceID as removed. Jobs the store has
// never seen are reported as not found, which callers treat as a no-op.
func (i *Importer) MarkRemoved(ctx context.Context, sourceID string, removedAt *time.Time) (bool, error) {
	at := time.Now()
	if removedAt != nil {
		at = *removedAt
	}

	found, err := i.store.MarkJobRemoved(ctx, i.source, sourceID, at)
	if err != nil {
		return false, fmt.Errorf("removal of ad %s failed: %w", sourceID, err)
	}
	return found, nil
}

// Watermark returns the time the source was last synced, or zero when the
// store has never seen this source.
func (i *Importer) Watermark(ctx context.Context) (time.Time, error) {
	latest, err := i.store.LatestCheckedAt(ctx, i.source)
	if err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return time.Time{}, nil
	}
	return *latest, nil
}
