package mock

import "github.com/fwojciec/searchcrawl"

var _ searchcrawl.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of searchcrawl.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*searchcrawl.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*searchcrawl.ExtractResult, error) {
	return e.ExtractFn(html)
}
