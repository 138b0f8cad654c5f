package searchcrawl

import "context"

// FetchResult is the outcome of loading a page.
type FetchResult struct {
	// URL is the address the page ended up at after redirects.
	URL string `json:"url"`

	// HTML is the rendered document. It may be partial or empty when
	// navigation did not complete.
	HTML string `json:"html"`
}

// Fetcher retrieves rendered HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch loads the URL and returns the final address and rendered HTML.
	// Implementations bound the time spent on a single page. When navigation
	// fails after the page was opened, Fetch returns whatever it salvaged
	// together with the error, so callers can degrade instead of abort.
	Fetch(ctx context.Context, url string) (*FetchResult, error)

	// Close releases browser resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}
