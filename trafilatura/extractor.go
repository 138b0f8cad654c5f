// Package trafilatura implements searchcrawl.Extractor using go-trafilatura.
// It is an alternative to the readability package that copes better with
// pages whose main content is not wrapped in an article element.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/searchcrawl"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements searchcrawl.Extractor at compile time.
var _ searchcrawl.Extractor = (*Extractor)(nil)

// Extractor wraps go-trafilatura to extract main content from HTML.
type Extractor struct {
	opts trafilatura.Options
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLinks keeps hyperlinks in the extracted content.
func WithLinks() Option {
	return func(e *Extractor) {
		e.opts.IncludeLinks = true
	}
}

// NewExtractor creates a new Extractor.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		opts: trafilatura.Options{
			EnableFallback:  true,
			ExcludeComments: true,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract processes raw HTML and returns the main content. Blank input
// yields an empty result rather than an error.
func (e *Extractor) Extract(rawHTML string) (*searchcrawl.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return &searchcrawl.ExtractResult{}, nil
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), e.opts)
	if err != nil {
		return nil, searchcrawl.Errorf(searchcrawl.EINVALID, "trafilatura: %v", err)
	}

	var contentHTML string
	if result.ContentNode != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return nil, err
		}
		contentHTML = buf.String()
	}

	title := strings.TrimSpace(result.Metadata.Title)
	return &searchcrawl.ExtractResult{
		Title:       title,
		ShortTitle:  searchcrawl.ShortTitle(title),
		Author:      strings.TrimSpace(result.Metadata.Author),
		ContentHTML: contentHTML,
	}, nil
}
