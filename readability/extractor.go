// Package readability implements searchcrawl.Extractor using go-readability.
package readability

import (
	"net/url"
	"strings"

	"github.com/fwojciec/searchcrawl"
	"github.com/go-shiori/go-readability"
)

// Ensure Extractor implements searchcrawl.Extractor at compile time.
var _ searchcrawl.Extractor = (*Extractor)(nil)

// Extractor wraps go-readability to extract main content from HTML.
type Extractor struct {
	pageURL *url.URL
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content. Blank input
// yields an empty result rather than an error.
func (e *Extractor) Extract(rawHTML string) (*searchcrawl.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return &searchcrawl.ExtractResult{}, nil
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), e.pageURL)
	if err != nil {
		return nil, searchcrawl.Errorf(searchcrawl.EINVALID, "readability: %v", err)
	}

	title := strings.TrimSpace(article.Title)
	return &searchcrawl.ExtractResult{
		Title:       title,
		ShortTitle:  searchcrawl.ShortTitle(title),
		Author:      strings.TrimSpace(article.Byline),
		ContentHTML: article.Content,
	}, nil
}
