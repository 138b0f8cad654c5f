package searchcrawl

// LinkExtractor finds outbound links in HTML.
type LinkExtractor interface {
	// ExtractLinks returns the href of every anchor in html, resolved to an
	// absolute URL against baseURL. Links that cannot be resolved or that use
	// a non-HTTP scheme are skipped. Empty HTML yields no links.
	ExtractLinks(html string, baseURL string) ([]string, error)
}
