package main

import (
	"fmt"

	"github.com/fwojciec/searchcrawl"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	cfg, extract, err := c.prepare(deps)
	if err != nil {
		return fail(deps, err)
	}

	pages, crawlErr := deps.Crawler.Crawl(deps.Ctx, c.URL, cfg)
	if crawlErr != nil && pages == nil {
		return fail(deps, crawlErr)
	}

	return finish(deps, &c.CrawlFlags, extract, pages, pages, crawlErr)
}

// Run executes the crawl-many command.
func (c *CrawlManyCmd) Run(deps *Dependencies) error {
	cfg, extract, err := c.prepare(deps)
	if err != nil {
		return fail(deps, err)
	}

	seeds := c.URLs
	if c.Sitemap != "" {
		filter, err := searchcrawl.NewURLFilter(c.Include, c.Exclude)
		if err != nil {
			return fail(deps, err)
		}
		discovered, err := deps.Sitemaps.DiscoverURLs(deps.Ctx, c.Sitemap, filter)
		if err != nil {
			return fail(deps, err)
		}
		fmt.Fprintf(deps.Stderr, "Found %d URLs in sitemap\n", len(discovered))
		seeds = append(seeds, discovered...)
	}
	if len(seeds) == 0 {
		return fail(deps, searchcrawl.Errorf(searchcrawl.EINVALID, "no seeds: pass URLs or --sitemap"))
	}

	results, crawlErr := deps.Crawler.CrawlMany(deps.Ctx, seeds, cfg)
	if crawlErr != nil && results == nil {
		return fail(deps, crawlErr)
	}

	var pages []*searchcrawl.ScrapeResult
	for _, r := range results {
		pages = append(pages, r...)
	}
	return finish(deps, &c.CrawlFlags, extract, results, pages, crawlErr)
}

// prepare validates the crawl and extraction flags before any work starts.
func (f *CrawlFlags) prepare(deps *Dependencies) (searchcrawl.CrawlConfig, *searchcrawl.ExtractRequest, error) {
	cfg, err := f.Config()
	if err != nil {
		return cfg, nil, err
	}
	extract, err := f.ExtractRequest()
	if err != nil {
		return cfg, nil, err
	}
	if extract != nil && deps.Fields == nil {
		return cfg, nil, searchcrawl.Errorf(searchcrawl.EINVALID, "--extract requires a Gemini API key")
	}
	return cfg, extract, nil
}
