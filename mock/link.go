package mock

import "github.com/fwojciec/searchcrawl"

var _ searchcrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor is a mock implementation of searchcrawl.LinkExtractor.
type LinkExtractor struct {
	ExtractLinksFn func(html string, baseURL string) ([]string, error)
}

func (l *LinkExtractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	return l.ExtractLinksFn(html, baseURL)
}
