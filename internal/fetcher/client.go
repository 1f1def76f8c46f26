package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"resty.dev/v3"

	"github.com/TC94615/binance-data-downloader/internal/ratelimit"
)

const (
	// Default retry configuration
	defaultRetryCount       = 3
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 30 * time.Second
	defaultTimeout          = 5 * time.Minute
)

// Options configures the portal client.
type Options struct {
	// Retries is the number of additional attempts after the first failure.
	Retries int
	// Timeout bounds each request, including the body transfer.
	Timeout time.Duration
	// RetryWaitTime and RetryMaxWaitTime bound the exponential backoff window.
	RetryWaitTime    time.Duration
	RetryMaxWaitTime time.Duration
}

// Client performs the two fetches of a download task against the portal:
// the small checksum file and the archive itself. All requests go through the
// shared rate limiter and the retry-with-backoff machinery.
type Client struct {
	http    *resty.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// NewClient creates a portal client with retry logic and exponential backoff.
func NewClient(opts Options, limiter *ratelimit.Limiter, logger *slog.Logger) *Client {
	if opts.Retries < 0 {
		opts.Retries = defaultRetryCount
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryWaitTime <= 0 {
		opts.RetryWaitTime = defaultRetryWaitTime
	}
	if opts.RetryMaxWaitTime <= 0 {
		opts.RetryMaxWaitTime = defaultRetryMaxWaitTime
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWaitTime).
		SetRetryMaxWaitTime(opts.RetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook(logger))

	return &Client{
		http:    client,
		limiter: limiter,
		logger:  logger,
	}
}

// retryCondition determines whether a request should be retried based on the response and error.
// A 404 is a terminal answer from the portal and is never retried.
func retryCondition(r *resty.Response, err error) bool {
	// Retry on transport errors unless the caller gave up
	if err != nil {
		return !errors.Is(err, context.Canceled)
	}

	// Retry on server errors (5xx)
	if r.StatusCode() >= 500 {
		return true
	}

	// Retry on rate limit (429) and request timeout (408)
	if r.StatusCode() == 429 || r.StatusCode() == 408 {
		return true
	}

	return false
}

// retryHook logs retry attempts for observability
func retryHook(logger *slog.Logger) resty.RetryHookFunc {
	return func(r *resty.Response, err error) {
		if err != nil {
			logger.Debug("retrying request due to error",
				"url", r.Request.URL,
				"attempt", r.Request.Attempt,
				"error", err.Error())
			return
		}

		logger.Debug("retrying request due to status code",
			"url", r.Request.URL,
			"attempt", r.Request.Attempt,
			"status_code", r.StatusCode())
	}
}

// FetchChecksum retrieves the checksum file for an archive and returns its raw
// text. A remote 404 surfaces as a not-found FetchError without retries.
func (c *Client) FetchChecksum(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", ClassifyTransportError(err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", ClassifyTransportError(err)
	}

	if !resp.IsSuccess() {
		return "", ClassifyHTTPError(resp.StatusCode())
	}

	return resp.String(), nil
}

// DownloadArchive streams the archive at url into dest, creating parent
// directories as needed. On any failure the partial file is removed, so an
// interrupted download never leaves an unverifiable artifact behind.
func (c *Client) DownloadArchive(ctx context.Context, url, dest string) (int64, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, ClassifyTransportError(err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return 0, ClassifyTransportError(err)
	}
	defer resp.Body.Close()

	if !resp.IsSuccess() {
		return 0, ClassifyHTTPError(resp.StatusCode())
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create output directory: %w", err)
	}

	file, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("create archive file: %w", err)
	}

	written, err := io.Copy(file, resp.Body)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return 0, NewNetworkError(err)
	}

	c.logger.Debug("archive downloaded", "url", url, "bytes", written)
	return written, nil
}
