// Package slog provides logging decorators for searchcrawl services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/searchcrawl"
)

// Ensure LoggingFetcher implements searchcrawl.Fetcher.
var _ searchcrawl.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   searchcrawl.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next searchcrawl.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs the URL being fetched and delegates to the wrapped fetcher.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (page *searchcrawl.FetchResult, err error) {
	defer func(begin time.Time) {
		var resolved string
		var size int
		if page != nil {
			resolved, size = page.URL, len(page.HTML)
		}
		f.logger.Info("fetch",
			"url", url,
			"resolved", resolved,
			"bytes", size,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
