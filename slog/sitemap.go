package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/searchcrawl"
)

// Ensure LoggingSitemapService implements searchcrawl.SitemapService.
var _ searchcrawl.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with logging.
type LoggingSitemapService struct {
	next   searchcrawl.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next searchcrawl.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs the seeds found
// along with the number of filter patterns applied.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *searchcrawl.URLFilter) (urls []string, err error) {
	var include, exclude int
	if filter != nil {
		include, exclude = len(filter.Include), len(filter.Exclude)
	}
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelWarn
		}
		s.logger.Log(ctx, level, "sitemap discovery",
			"url", baseURL,
			"include", include,
			"exclude", exclude,
			"seeds", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, filter)
}
