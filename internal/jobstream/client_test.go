package jobstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platsbanken-sync/internal/config"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	cfg.JobStream.BaseURL = baseURL
	cfg.JobStream.APIKey = "test-key"
	cfg.JobStream.MaxRetries = 3
	cfg.JobStream.RetryBaseDelay = 5 * time.Millisecond
	cfg.JobStream.RateLimit = 0

	return NewClient(cfg)
}

func TestStreamSendsWindowAndHeaders(t *testing.T) {
	var gotQuery map[string][]string
	var gotHeaders http.Header

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotHeaders = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"ad-1","headline":"Utvecklare"},{"id":"ad-2","removed":true}]`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	since := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	until := time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC)

	ads, err := client.Stream(context.Background(), since, until)
	require.NoError(t, err)
	require.Len(t, ads, 2)

	assert.Equal(t, "ad-1", ads[0].ID)
	assert.False(t, ads[0].IsRemoved())
	assert.True(t, ads[1].IsRemoved())

	assert.Equal(t, []string{"2024-03-01T10:00:00"}, gotQuery["date"])
	assert.Equal(t, []string{"2024-03-01T11:00:00"}, gotQuery["updated-before-date"])
	assert.Equal(t, "application/json", gotHeaders.Get("Accept"))
	assert.Equal(t, "sv", gotHeaders.Get("Accept-Language"))
	assert.Equal(t, "test-key", gotHeaders.Get("api-key"))
}

func TestSnapshotHitsSnapshotPath(t *testing.T) {
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	ads, err := client.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ads)
	assert.Equal(t, "/snapshot", gotPath)
}

func TestRetriesRateLimitWithRetryAfter(t *testing.T) {
	var attempts int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`[{"id":"ad-1"}]`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	start := time.Now()
	ads, err := client.Snapshot(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Len(t, ads, 1)
	assert.Equal(t, 2, attempts)
	assert.GreaterOrEqual(t, elapsed, time.Second, "should honor Retry-After before retrying")
}

func TestServerErrorIsFatalAndTruncated(t *testing.T) {
	var attempts int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(strings.Repeat("x", 2048)))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	_, err := client.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, IsFatal(err))
	assert.Equal(t, 1, attempts, "non-429 errors must not be retried")
	assert.LessOrEqual(t, len(err.Error()), 700)
	assert.Contains(t, err.Error(), "500")
}

func TestMalformedBodyIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	_, err := client.Snapshot(context.Background())
	require.Error(t, err)
	assert.True(t, IsFatal(err))
}

func TestTransportErrorsExhaustRetries(t *testing.T) {
	var attempts int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if hj, ok := w.(http.Hijacker); ok {
			conn, _, _ := hj.Hijack()
			conn.Close()
		}
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	_, err := client.Snapshot(context.Background())
	require.Error(t, err)
	assert.False(t, IsFatal(err))
	assert.Equal(t, 3, attempts)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, time.Second, parseRetryAfter(""))
	assert.Equal(t, time.Second, parseRetryAfter("garbage"))
	assert.Equal(t, time.Second, parseRetryAfter("0"))
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
}
