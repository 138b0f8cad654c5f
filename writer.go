package searchcrawl

import "context"

// ResultWriter persists crawled pages.
type ResultWriter interface {
	WriteResult(ctx context.Context, result *ScrapeResult) error
}
