package jobstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"platsbanken-sync/internal/config"
	"platsbanken-sync/internal/logging"
	"platsbanken-sync/pkg/models"
	"platsbanken-sync/pkg/utils"
)

const (
	streamPath   = "/stream"
	snapshotPath = "/snapshot"

	// Upstream expects local timestamps without a zone suffix.
	timeParamLayout = "2006-01-02T15:04:05"

	maxErrorBodyBytes = 512
)

// FatalError is a non-retryable upstream failure: an unexpected status code
// or an undecodable body. It aborts the surrounding sync run.
type FatalError struct {
	StatusCode int
	Message    string
}

func (e *FatalError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("jobstream: upstream returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("jobstream: %s", e.Message)
}

// IsFatal reports whether err is a non-retryable upstream failure.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe)
}

// Client fetches job ads from the JobStream API. Transient transport errors
// and 429 responses are retried with exponential backoff before giving up.
type Client struct {
	baseURL    string
	apiKey     string
	locale     string
	maxRetries int
	baseDelay  time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logging.Logger
}

// NewClient creates a new JobStream client from configuration.
func NewClient(cfg *config.Config) *Client {
	perSecond := rate.Limit(float64(cfg.JobStream.RateLimit) / 60.0)
	if cfg.JobStream.RateLimit <= 0 {
		perSecond = rate.Inf
	}

	return &Client{
		baseURL:    cfg.JobStream.BaseURL,
		apiKey:     cfg.JobStream.APIKey,
		locale:     cfg.JobStream.Locale,
		maxRetries: cfg.JobStream.MaxRetries,
		baseDelay:  cfg.JobStream.RetryBaseDelay,
		httpClient: &http.Client{
			Timeout: cfg.JobStream.RequestTimeout,
		},
		limiter: rate.NewLimiter(perSecond, 1),
		logger:  logging.GetGlobalLogger(),
	}
}

// Stream fetches all ads changed in the window (since, until]. The upstream
// returns both active and removed ads; callers partition them.
func (c *Client) Stream(ctx context.Context, since, until time.Time) ([]models.JobAd, error) {
	params := url.Values{}
	params.Set("date", since.Format(timeParamLayout))
	if !until.IsZero() {
		params.Set("updated-before-date", until.Format(timeParamLayout))
	}

	return c.fetchAds(ctx, streamPath, params)
}

// Snapshot fetches the full dump of currently published ads.
func (c *Client) Snapshot(ctx context.Context) ([]models.JobAd, error) {
	return c.fetchAds(ctx, snapshotPath, url.Values{})
}

func (c *Client) fetchAds(ctx context.Context, path string, params url.Values) ([]models.JobAd, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	body, err := c.getWithRetry(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var ads []models.JobAd
	if err := json.Unmarshal(body, &ads); err != nil {
		return nil, &FatalError{Message: fmt.Sprintf("failed to decode response from %s: %v", path, err)}
	}

	c.logger.Info("Fetched ads from JobStream", map[string]interface{}{
		"path":  path,
		"count": len(ads),
	})

	return ads, nil
}

// getWithRetry performs a GET with exponential backoff and jitter. A 429
// response waits out Retry-After (floor 1s) instead of the backoff delay.
// Any other non-200 status is fatal and returned immediately.
func (c *Client) getWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryAfter, err := c.get(ctx, endpoint)
		if err == nil {
			return body, nil
		}
		if IsFatal(err) {
			return nil, err
		}
		lastErr = err

		if attempt == c.maxRetries {
			break
		}

		delay := c.backoffDelay(attempt)
		if retryAfter > delay {
			delay = retryAfter
		}

		c.logger.Warn("JobStream request failed, retrying", map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
			"error":   err.Error(),
		})

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, fmt.Errorf("jobstream: request failed after %d attempts: %w", c.maxRetries, lastErr)
}

// get performs a single request. For 429 it returns a retryable error plus
// the server-requested wait; for other non-200 statuses a FatalError with a
// truncated body excerpt.
func (c *Client) get(ctx context.Context, endpoint string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, &FatalError{Message: fmt.Sprintf("failed to build request: %v", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", c.locale)
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), fmt.Errorf("rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, 0, &FatalError{
			StatusCode: resp.StatusCode,
			Message:    utils.TruncateString(string(excerpt), maxErrorBodyBytes),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, 0, nil
}

// backoffDelay computes the exponential delay for the given attempt with up
// to 25% jitter added.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(1<<(attempt-1))
	jitter := time.Duration(rand.Int63n(int64(delay)/4 + 1))
	return delay + jitter
}

// parseRetryAfter reads a Retry-After header in either delta-seconds or
// HTTP-date form. Missing or unparsable values fall back to 1s, and the
// result never goes below 1s.
func parseRetryAfter(value string) time.Duration {
	const floor = time.Second

	if value == "" {
		return floor
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		d := time.Duration(seconds) * time.Second
		if d < floor {
			return floor
		}
		return d
	}

	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < floor {
			return floor
		}
		return d
	}

	return floor
}
