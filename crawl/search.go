package crawl

import (
	"context"

	"github.com/fwojciec/searchcrawl"
)

// Ensure CachingSearcher implements searchcrawl.Searcher.
var _ searchcrawl.Searcher = (*CachingSearcher)(nil)

// CachingSearcher caches the full result list of each query. Requests that
// differ only in MaxResults share an entry.
type CachingSearcher struct {
	next  searchcrawl.Searcher
	cache searchcrawl.Cache
}

// NewCachingSearcher wraps next with cache. A nil cache disables caching.
func NewCachingSearcher(next searchcrawl.Searcher, cache searchcrawl.Cache) *CachingSearcher {
	return &CachingSearcher{next: next, cache: cache}
}

// Search implements searchcrawl.Searcher using req.Cache as the policy.
func (s *CachingSearcher) Search(ctx context.Context, req *searchcrawl.SearchRequest) ([]*searchcrawl.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	full := *req
	full.MaxResults = 0
	results, err := GetOrCompute(ctx, s.cache, req.Cache, req.CacheKey(),
		func(ctx context.Context) ([]*searchcrawl.SearchResult, error) {
			return s.next.Search(ctx, &full)
		})
	if err != nil {
		return nil, err
	}

	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	return results, nil
}

// SearchCrawl runs req through searcher and crawls every hit with cfg. Hits
// whose URL cannot be crawled are returned with no pages.
func (c *Crawler) SearchCrawl(ctx context.Context, searcher searchcrawl.Searcher, req *searchcrawl.SearchRequest, cfg searchcrawl.CrawlConfig) ([]*searchcrawl.SearchCrawlResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	hits, err := searcher.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make([]*searchcrawl.SearchCrawlResult, len(hits))
	var (
		seeds   []string
		indexes []int
	)
	for i, hit := range hits {
		out[i] = &searchcrawl.SearchCrawlResult{SearchResult: hit, Pages: []*searchcrawl.ScrapeResult{}}
		if _, err := searchcrawl.ParseURL(hit.URL); err != nil {
			continue
		}
		seeds = append(seeds, hit.URL)
		indexes = append(indexes, i)
	}

	pages, err := c.CrawlMany(ctx, seeds, cfg)
	for j, i := range indexes {
		if j < len(pages) && pages[j] != nil {
			out[i].Pages = pages[j]
		}
	}
	return out, err
}
