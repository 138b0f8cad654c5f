package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/searchcrawl"
)

// Ensure LoggingSearcher implements searchcrawl.Searcher.
var _ searchcrawl.Searcher = (*LoggingSearcher)(nil)

// LoggingSearcher wraps a Searcher with logging.
type LoggingSearcher struct {
	next   searchcrawl.Searcher
	logger *slog.Logger
}

// NewLoggingSearcher creates a new LoggingSearcher.
func NewLoggingSearcher(next searchcrawl.Searcher, logger *slog.Logger) *LoggingSearcher {
	return &LoggingSearcher{next: next, logger: logger}
}

// Search delegates to the wrapped searcher and logs the query.
func (s *LoggingSearcher) Search(ctx context.Context, req *searchcrawl.SearchRequest) (results []*searchcrawl.SearchResult, err error) {
	defer func(begin time.Time) {
		s.logger.Info("search",
			"query", req.Query,
			"page", req.Page,
			"count", len(results),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Search(ctx, req)
}
