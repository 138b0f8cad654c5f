package crawl

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/searchcrawl"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (*searchcrawl.FetchResult, error)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// Salvaged reports whether a fetch that failed with err still produced a
// usable page: the page's own load deadline passed, the caller's ctx is
// still live, and some HTML was read. Such a fetch counts as a success.
func Salvaged(ctx context.Context, page *searchcrawl.FetchResult, err error) bool {
	return err != nil &&
		errors.Is(err, context.DeadlineExceeded) &&
		ctx.Err() == nil &&
		page != nil &&
		strings.TrimSpace(page.HTML) != ""
}

// FetchWithRetryDelays calls fetch until it succeeds, sleeping between
// attempts for each of delays in turn. It makes len(delays)+1 attempts.
// A salvaged timeout (see Salvaged) ends the loop as a success.
//
// When every attempt fails, the result of the last attempt is returned
// alongside its error so that callers can salvage a partial page.
func FetchWithRetryDelays(ctx context.Context, url string, fetch FetchFunc, logger *slog.Logger, delays []time.Duration) (*searchcrawl.FetchResult, error) {
	maxAttempts := len(delays) + 1

	var (
		last    *searchcrawl.FetchResult
		lastErr error
	)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		result, err := fetch(ctx, url)
		if err == nil {
			return result, nil
		}
		if Salvaged(ctx, result, err) {
			if logger != nil {
				logger.Debug("salvaged timed out fetch", "url", url, "err", err)
			}
			return result, nil
		}
		last, lastErr = result, err

		if attempt >= maxAttempts-1 {
			break
		}

		if ctx.Err() != nil {
			return last, ctx.Err()
		}

		if logger != nil {
			logger.Warn("retry fetch", "url", url, "attempt", attempt+2, "err", err)
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return last, lastErr
}

// Ensure RetryFetcher implements searchcrawl.Fetcher.
var _ searchcrawl.Fetcher = (*RetryFetcher)(nil)

// RetryFetcher retries failed fetches of the wrapped Fetcher with backoff.
type RetryFetcher struct {
	next   searchcrawl.Fetcher
	delays []time.Duration
	logger *slog.Logger
}

// NewRetryFetcher wraps next. Nil delays means DefaultRetryDelays; an empty
// slice disables retries. A nil logger disables retry logging.
func NewRetryFetcher(next searchcrawl.Fetcher, delays []time.Duration, logger *slog.Logger) *RetryFetcher {
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	return &RetryFetcher{next: next, delays: delays, logger: logger}
}

// Fetch implements searchcrawl.Fetcher.
func (f *RetryFetcher) Fetch(ctx context.Context, url string) (*searchcrawl.FetchResult, error) {
	return FetchWithRetryDelays(ctx, url, f.next.Fetch, f.logger, f.delays)
}

// Close closes the wrapped fetcher.
func (f *RetryFetcher) Close() error {
	return f.next.Close()
}
