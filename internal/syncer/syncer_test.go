package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platsbanken-sync/internal/config"
	"platsbanken-sync/internal/transform"
	"platsbanken-sync/pkg/models"
)

type fakeClient struct {
	streamAds   []models.JobAd
	snapshotAds []models.JobAd
	err         error

	gotSince time.Time
	gotUntil time.Time
}

func (f *fakeClient) Stream(_ context.Context, since, until time.Time) ([]models.JobAd, error) {
	f.gotSince = since
	f.gotUntil = until
	return f.streamAds, f.err
}

func (f *fakeClient) Snapshot(_ context.Context) ([]models.JobAd, error) {
	return f.snapshotAds, f.err
}

type fakeImporter struct {
	mu         sync.Mutex
	watermark  time.Time
	known      map[string]bool
	ops        []string
	removedAts map[string]*time.Time

	failSourceIDs map[string]bool
}

func newFakeImporter() *fakeImporter {
	return &fakeImporter{
		known:         map[string]bool{},
		removedAts:    map[string]*time.Time{},
		failSourceIDs: map[string]bool{},
	}
}

func (f *fakeImporter) Upsert(_ context.Context, job *models.TransformedJob) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failSourceIDs[job.SourceID] {
		return "", errors.New("store unavailable")
	}
	f.known[job.SourceID] = true
	f.ops = append(f.ops, "upsert:"+job.SourceID)
	return "job-" + job.SourceID, nil
}

func (f *fakeImporter) MarkRemoved(_ context.Context, sourceID string, removedAt *time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ops = append(f.ops, "remove:"+sourceID)
	f.removedAts[sourceID] = removedAt
	if !f.known[sourceID] {
		return false, nil
	}
	f.known[sourceID] = false
	return true, nil
}

func (f *fakeImporter) Watermark(_ context.Context) (time.Time, error) {
	return f.watermark, nil
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func activeAd(id, title string) models.JobAd {
	return models.JobAd{
		ID:       id,
		Headline: strptr(title),
		Employer: &models.AdEmployer{Name: strptr("Acme AB")},
	}
}

func removedAd(id string) models.JobAd {
	return models.JobAd{ID: id, Removed: boolptr(true)}
}

func newTestSyncer(t *testing.T, client SourceClient, imp AdImporter) *Syncer {
	t.Helper()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Sync.RunTimeout = 5 * time.Second

	return NewSyncer(cfg, client, transform.NewTransformer("Sverige"), imp)
}

func TestRunZeroAdsShortCircuits(t *testing.T) {
	client := &fakeClient{}
	imp := newFakeImporter()
	imp.watermark = time.Now().Add(-time.Hour)

	summary, err := newTestSyncer(t, client, imp).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &models.SyncSummary{}, summary)
	assert.Empty(t, imp.ops)
}

func TestRemovalForwardsUpstreamTimestamp(t *testing.T) {
	rfc := removedAd("ad-rfc")
	rfc.RemovedDate = strptr("2024-03-02T08:00:00Z")
	dateOnly := removedAd("ad-date")
	dateOnly.RemovedDate = strptr("2024-01-01")

	client := &fakeClient{streamAds: []models.JobAd{rfc, dateOnly}}
	imp := newFakeImporter()
	imp.known["ad-rfc"] = true
	imp.known["ad-date"] = true

	_, err := newTestSyncer(t, client, imp).Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, imp.removedAts["ad-rfc"])
	assert.Equal(t, time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), *imp.removedAts["ad-rfc"])
	require.NotNil(t, imp.removedAts["ad-date"])
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), *imp.removedAts["ad-date"])
}

func TestRunUsesStoredWatermark(t *testing.T) {
	client := &fakeClient{}
	imp := newFakeImporter()
	imp.watermark = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := newTestSyncer(t, client, imp).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, imp.watermark, client.gotSince)
	assert.WithinDuration(t, time.Now(), client.gotUntil, time.Minute)
}

func TestRunColdStartWindow(t *testing.T) {
	client := &fakeClient{}
	imp := newFakeImporter()

	_, err := newTestSyncer(t, client, imp).Run(context.Background())
	require.NoError(t, err)

	expected := time.Now().Add(-7 * 24 * time.Hour)
	assert.WithinDuration(t, expected, client.gotSince, time.Minute)
}

func TestRunImportsAndRemoves(t *testing.T) {
	imp := newFakeImporter()
	imp.watermark = time.Now().Add(-time.Hour)
	imp.known["old-ad"] = true

	client := &fakeClient{streamAds: []models.JobAd{
		activeAd("ad-1", "Utvecklare"),
		activeAd("ad-2", "Sjuksköterska"),
		removedAd("old-ad"),
		{ID: "ad-3", Employer: &models.AdEmployer{Name: strptr("Acme AB")}}, // no title
	}}

	summary, err := newTestSyncer(t, client, imp).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Removed)
	assert.Equal(t, 1, summary.Failed)
}

func TestPartialFailureIsolation(t *testing.T) {
	imp := newFakeImporter()
	imp.watermark = time.Now().Add(-time.Hour)
	imp.failSourceIDs["ad-2"] = true

	client := &fakeClient{streamAds: []models.JobAd{
		activeAd("ad-1", "Utvecklare"),
		activeAd("ad-2", "Ekonom"),
		activeAd("ad-3", "Lärare"),
	}}

	summary, err := newTestSyncer(t, client, imp).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 1, summary.Failed)
	assert.True(t, imp.known["ad-1"])
	assert.True(t, imp.known["ad-3"])
}

func TestRemovalOfUnknownAdIsNoOp(t *testing.T) {
	imp := newFakeImporter()
	imp.watermark = time.Now().Add(-time.Hour)

	client := &fakeClient{streamAds: []models.JobAd{removedAd("never-seen")}}

	summary, err := newTestSyncer(t, client, imp).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, summary.Removed)
	assert.Equal(t, 0, summary.Failed)
}

func TestRemovalsRunBeforeImports(t *testing.T) {
	imp := newFakeImporter()
	imp.watermark = time.Now().Add(-time.Hour)
	imp.known["ad-1"] = true

	// The same ad is removed and re-published inside one window; it must
	// end up active.
	client := &fakeClient{streamAds: []models.JobAd{
		activeAd("ad-1", "Utvecklare"),
		removedAd("ad-1"),
	}}

	summary, err := newTestSyncer(t, client, imp).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Imported)
	assert.Equal(t, 1, summary.Removed)
	assert.True(t, imp.known["ad-1"])
	assert.Equal(t, []string{"remove:ad-1", "upsert:ad-1"}, imp.ops)
}

func TestRunSnapshotImportsFullDump(t *testing.T) {
	imp := newFakeImporter()
	client := &fakeClient{snapshotAds: []models.JobAd{
		activeAd("ad-1", "Utvecklare"),
		activeAd("ad-2", "Ekonom"),
	}}

	summary, err := newTestSyncer(t, client, imp).RunSnapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Imported)
	assert.Equal(t, 0, summary.Failed)
}

func TestRunPropagatesFetchErrors(t *testing.T) {
	imp := newFakeImporter()
	imp.watermark = time.Now().Add(-time.Hour)
	client := &fakeClient{err: errors.New("upstream down")}

	_, err := newTestSyncer(t, client, imp).Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, imp.ops)
}

func TestForEachAdBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	var inFlight, peak int

	ads := make([]models.JobAd, 50)
	forEachAd(context.Background(), 10, ads, func(models.JobAd) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(2 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
	})

	assert.LessOrEqual(t, peak, 10)
	assert.Greater(t, peak, 1)
}
