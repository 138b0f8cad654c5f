// Package crawl implements the recursive, pagination-aware crawler.
// It coordinates fetching, content extraction, link navigation and
// deduplication for one or more seed URLs.
package crawl

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/searchcrawl"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// Crawler crawls sites outward from seed URLs.
type Crawler struct {
	Fetcher   searchcrawl.Fetcher
	Extractor searchcrawl.Extractor
	Converter searchcrawl.Converter
	Links     searchcrawl.LinkExtractor

	// Cache stores raw fetches. Nil disables caching.
	Cache searchcrawl.Cache

	// Progress, if set, receives events as pages complete. Calls are
	// serialized per crawl.
	Progress ProgressFunc
}

// ProgressEvent reports progress during a crawl operation.
type ProgressEvent struct {
	Type      ProgressType
	RunID     string
	Completed int
	URL       string
	Depth     int
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting crawl progress.
type ProgressFunc func(event ProgressEvent)

// Crawl fetches seed and, recursively, the links selected by cfg.Scope.
//
// An invalid seed or config fails with EINVALID before anything is fetched.
// Pages that fail to fetch are recorded with ScrapeResult.Error set and do
// not fail the crawl. If ctx is cancelled, Crawl returns the pages finished
// so far along with the context error.
//
// Results are ordered by depth, then by URL.
func (c *Crawler) Crawl(ctx context.Context, seed string, cfg searchcrawl.CrawlConfig) ([]*searchcrawl.ScrapeResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	u, err := searchcrawl.ParseURL(seed)
	if err != nil {
		return nil, err
	}
	return c.crawl(ctx, u, cfg)
}

// CrawlMany runs an independent crawl for each seed concurrently. The result
// at index i belongs to seeds[i]. Every seed is validated before any crawl
// starts.
func (c *Crawler) CrawlMany(ctx context.Context, seeds []string, cfg searchcrawl.CrawlConfig) ([][]*searchcrawl.ScrapeResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	urls := make([]searchcrawl.URL, len(seeds))
	for i, seed := range seeds {
		u, err := searchcrawl.ParseURL(seed)
		if err != nil {
			return nil, err
		}
		urls[i] = u
	}

	results := make([][]*searchcrawl.ScrapeResult, len(urls))
	var g errgroup.Group
	for i, u := range urls {
		g.Go(func() error {
			r, err := c.crawl(ctx, u, cfg)
			results[i] = r
			return err
		})
	}
	return results, g.Wait()
}

func (c *Crawler) crawl(ctx context.Context, seed searchcrawl.URL, cfg searchcrawl.CrawlConfig) ([]*searchcrawl.ScrapeResult, error) {
	r := &run{
		crawler: c,
		cfg:     cfg,
		id:      uuid.NewString(),
		visited: NewVisitedSet(),
		slots:   semaphore.NewWeighted(int64(cfg.Concurrency)),
	}

	r.report(ProgressEvent{Type: ProgressStarted, URL: seed.String()})
	err := r.visit(ctx, seed, 0)
	r.report(ProgressEvent{Type: ProgressFinished, Completed: int(r.completed.Load())})

	slices.SortStableFunc(r.results, func(a, b *searchcrawl.ScrapeResult) int {
		return cmp.Or(cmp.Compare(a.Depth, b.Depth), cmp.Compare(a.URL, b.URL))
	})
	return r.results, err
}

// run is the state of a single crawl invocation. Nothing in it is shared
// with other invocations.
type run struct {
	crawler *Crawler
	cfg     searchcrawl.CrawlConfig
	id      string
	visited *VisitedSet
	slots   *semaphore.Weighted

	mu        sync.Mutex
	results   []*searchcrawl.ScrapeResult
	completed atomic.Int64

	progressMu sync.Mutex
}

// visit processes u at depth and then its selected links, returning once
// every branch below it has finished.
func (r *run) visit(ctx context.Context, u searchcrawl.URL, depth int) error {
	if !r.visited.Visit(u, r.cfg.MaxPages) {
		return nil
	}

	if err := r.slots.Acquire(ctx, 1); err != nil {
		return err
	}
	page, fetchErr := r.crawler.fetch(ctx, u.String(), r.cfg.Cache)
	r.slots.Release(1)
	if err := ctx.Err(); err != nil {
		return err
	}

	result := r.crawler.parse(u, page, fetchErr, r.cfg.Format)
	result.Depth = depth
	r.record(result, fetchErr)

	if r.cfg.MaxDepth != nil && depth >= *r.cfg.MaxDepth {
		return nil
	}

	var g errgroup.Group
	for _, link := range selectLinks(result, r.cfg.Scope) {
		next, err := searchcrawl.ParseURL(link)
		if err != nil || r.visited.Contains(next) {
			continue
		}
		g.Go(func() error {
			return r.visit(ctx, next, depth+1)
		})
	}
	return g.Wait()
}

func (r *run) record(result *searchcrawl.ScrapeResult, fetchErr error) {
	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()

	event := ProgressEvent{
		Type:      ProgressCompleted,
		Completed: int(r.completed.Add(1)),
		URL:       result.URL,
		Depth:     result.Depth,
	}
	if fetchErr != nil {
		event.Type = ProgressFailed
		event.Error = fetchErr
	}
	r.report(event)
}

func (r *run) report(event ProgressEvent) {
	if r.crawler.Progress == nil {
		return
	}
	event.RunID = r.id
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.crawler.Progress(event)
}

func selectLinks(result *searchcrawl.ScrapeResult, scope searchcrawl.CrawlScope) []string {
	return Navigation{
		Links:           result.Links,
		InternalLinks:   result.InternalLinks,
		PaginationLinks: result.PaginationLinks,
	}.Select(scope)
}
