// SPDX-License-Identifier: MIT

// Package source retrieves upstream guide and playlist bytes from HTTP(S)
// URLs or the local filesystem.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	xglog "github.com/senvora/epg/internal/log"
	"github.com/senvora/epg/internal/metrics"
	"github.com/senvora/epg/internal/platform/httpx"
	"github.com/senvora/epg/internal/telemetry"
)

// DefaultMaxBytes bounds a single download.
const DefaultMaxBytes = 256 << 20

var (
	// ErrTooLarge is returned when a source exceeds the configured size limit.
	ErrTooLarge = errors.New("source exceeds size limit")
	// ErrHTTPStatus matches every *HTTPError.
	ErrHTTPStatus = errors.New("unexpected http status")
)

// HTTPError reports a non-2xx response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, Host(e.URL))
}

// Is reports whether target is ErrHTTPStatus.
func (e *HTTPError) Is(target error) bool { return target == ErrHTTPStatus }

func (e *HTTPError) retryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// Options configures a Fetcher.
type Options struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
	// RateLimit caps requests per second across all callers. Zero disables it.
	RateLimit float64
	MaxBytes  int64
	// Client overrides the hardened default client.
	Client *http.Client
	// Backoff returns the wait before retry attempt n (n >= 1).
	Backoff func(attempt int) time.Duration
}

// Fetcher downloads sources. It is safe for concurrent use.
type Fetcher struct {
	client    *http.Client
	limiter   *rate.Limiter
	retries   int
	userAgent string
	maxBytes  int64
	backoff   func(int) time.Duration
}

// New returns a Fetcher for opts.
func New(opts Options) *Fetcher {
	f := &Fetcher{
		client:    opts.Client,
		retries:   max(opts.Retries, 0),
		userAgent: opts.UserAgent,
		maxBytes:  opts.MaxBytes,
		backoff:   opts.Backoff,
	}
	if f.client == nil {
		f.client = httpx.NewClient(opts.Timeout)
	}
	if f.maxBytes <= 0 {
		f.maxBytes = DefaultMaxBytes
	}
	if f.backoff == nil {
		f.backoff = QuadraticBackoff
	}
	if opts.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}
	return f
}

// QuadraticBackoff waits attempt² × 500ms.
func QuadraticBackoff(attempt int) time.Duration {
	return time.Duration(attempt*attempt*500) * time.Millisecond
}

// Fetch returns the raw bytes at location: an http(s) URL, a file:// URL or
// a filesystem path. Remote fetches are retried on transport errors, 5xx
// and 429.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, error) {
	ctx, span := telemetry.Tracer("epg/source").Start(ctx, "source.fetch")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.SourceHostKey, Host(location)))

	u, err := url.Parse(location)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		data, err := f.fetchHTTP(ctx, location)
		telemetry.RecordError(span, err, "fetch")
		return data, err
	}

	path := location
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}
	data, err := f.readFile(path)
	telemetry.RecordError(span, err, "read")
	return data, err
}

func (f *Fetcher) fetchHTTP(ctx context.Context, location string) ([]byte, error) {
	logger := xglog.WithComponentFromContext(ctx, "source")
	span := trace.SpanFromContext(ctx)
	host := Host(location)

	var lastErr error
	for attempt := 0; attempt <= f.retries; attempt++ {
		if attempt > 0 {
			wait := f.backoff(attempt)
			logger.Debug().
				Str(xglog.FieldHost, host).
				Int("attempt", attempt).
				Dur("backoff", wait).
				Err(lastErr).
				Msg("retrying fetch")
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		span.SetAttributes(attribute.Int(telemetry.FetchAttemptKey, attempt+1))
		data, err := f.get(ctx, location)
		if err == nil {
			metrics.RecordFetch("http", "success")
			return data, nil
		}
		lastErr = err

		var herr *HTTPError
		switch {
		case errors.As(err, &herr):
			metrics.RecordFetch("http", "status")
			span.SetAttributes(attribute.Int(telemetry.HTTPStatusCodeKey, herr.StatusCode))
			if !herr.retryable() {
				return nil, err
			}
		case errors.Is(err, ErrTooLarge):
			metrics.RecordFetch("http", "too_large")
			return nil, err
		default:
			metrics.RecordFetch("http", "error")
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
	}
	return nil, fmt.Errorf("fetch %s failed after %d retries: %w", host, f.retries, lastErr)
}

func (f *Fetcher) get(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", Host(location), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &HTTPError{URL: location, StatusCode: resp.StatusCode}
	}
	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}
	return readLimited(resp.Body, f.maxBytes)
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	// #nosec G304 -- source paths come from operator configuration
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		metrics.RecordFetch("file", "error")
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = file.Close() }()

	data, err := readLimited(file, f.maxBytes)
	switch {
	case errors.Is(err, ErrTooLarge):
		metrics.RecordFetch("file", "too_large")
	case err != nil:
		metrics.RecordFetch("file", "error")
	default:
		metrics.RecordFetch("file", "success")
	}
	return data, err
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTooLarge, limit)
	}
	return data, nil
}

// Host returns the host of a URL, or the base name of a path. Credentials,
// query strings and paths of URLs are never returned.
func Host(location string) string {
	u, err := url.Parse(location)
	if err == nil && u.Host != "" {
		return u.Host
	}
	if err == nil && u.Scheme == "file" {
		return filepath.Base(u.Path)
	}
	return filepath.Base(location)
}
