package main

import (
	"github.com/fwojciec/searchcrawl"
)

// Run executes the search command.
func (c *SearchCmd) Run(deps *Dependencies) error {
	policy := searchcrawl.DefaultCachePolicy()
	if c.NoCache {
		policy.Readable, policy.Writable = false, false
	}

	req, err := c.Request(c.Query, policy)
	if err != nil {
		return fail(deps, err)
	}

	results, err := deps.Searcher.Search(deps.Ctx, req)
	if err != nil {
		return fail(deps, err)
	}

	return writeJSON(deps.Stdout, results)
}

// Run executes the search-crawl command.
func (c *SearchCrawlCmd) Run(deps *Dependencies) error {
	cfg, extract, err := c.prepare(deps)
	if err != nil {
		return fail(deps, err)
	}

	req, err := c.Request(c.Query, cfg.Cache)
	if err != nil {
		return fail(deps, err)
	}

	results, crawlErr := deps.Crawler.SearchCrawl(deps.Ctx, deps.Searcher, req, cfg)
	if crawlErr != nil && results == nil {
		return fail(deps, crawlErr)
	}

	var pages []*searchcrawl.ScrapeResult
	for _, r := range results {
		pages = append(pages, r.Pages...)
	}
	return finish(deps, &c.CrawlFlags, extract, results, pages, crawlErr)
}
