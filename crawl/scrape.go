package crawl

import (
	"context"

	"github.com/fwojciec/searchcrawl"
)

// fetch returns the raw page for u, served from the cache when policy allows.
// A failed fetch may still return the page state the fetcher salvaged.
func (c *Crawler) fetch(ctx context.Context, u string, policy searchcrawl.CachePolicy) (*searchcrawl.FetchResult, error) {
	return GetOrCompute(ctx, c.Cache, policy, ScrapeCacheKey(u),
		func(ctx context.Context) (*searchcrawl.FetchResult, error) {
			page, err := c.Fetcher.Fetch(ctx, u)
			if Salvaged(ctx, page, err) {
				return page, nil
			}
			return page, err
		})
}

// parse builds the result for a fetched page. fetchErr marks the page as
// degraded; whatever HTML was salvaged is still parsed. Extraction and
// conversion failures leave the affected fields empty.
func (c *Crawler) parse(requested searchcrawl.URL, page *searchcrawl.FetchResult, fetchErr error, format searchcrawl.OutputFormat) *searchcrawl.ScrapeResult {
	if page == nil {
		page = &searchcrawl.FetchResult{URL: requested.String()}
	}

	base := page.URL
	current, err := searchcrawl.ParseURL(page.URL)
	if err != nil {
		base, current = requested.String(), requested
	}

	result := &searchcrawl.ScrapeResult{
		RequestedURL: requested.String(),
		URL:          current.String(),
		Format:       format,
	}
	if fetchErr != nil {
		result.Error = fetchErr.Error()
	}

	if page.HTML != "" {
		var mainHTML string
		if extracted, err := c.Extractor.Extract(page.HTML); err == nil && extracted != nil {
			result.Title = extracted.Title
			result.ShortTitle = extracted.ShortTitle
			result.Author = extracted.Author
			mainHTML = extracted.ContentHTML
		}
		result.Content = c.render(page.HTML, mainHTML, format)
	}
	result.ContentHash = ComputeHash(result.Content)

	var raw []string
	if page.HTML != "" {
		raw, _ = c.Links.ExtractLinks(page.HTML, base)
	}
	nav := Navigate(raw, current)
	result.Links = nav.Links
	result.InternalLinks = nav.InternalLinks
	result.PaginationLinks = nav.PaginationLinks

	return result
}

// render produces the representation of the page selected by format.
func (c *Crawler) render(fullHTML, mainHTML string, format searchcrawl.OutputFormat) string {
	switch format {
	case searchcrawl.FormatFullHTML:
		return fullHTML
	case searchcrawl.FormatMainHTML:
		return mainHTML
	case searchcrawl.FormatFullMarkdown:
		return c.markdown(fullHTML)
	default:
		return c.markdown(mainHTML)
	}
}

func (c *Crawler) markdown(html string) string {
	if html == "" {
		return ""
	}
	md, err := c.Converter.Convert(html)
	if err != nil {
		return ""
	}
	return md
}
