package mock

import (
	"context"

	"github.com/fwojciec/searchcrawl"
)

var _ searchcrawl.FieldExtractor = (*FieldExtractor)(nil)

// FieldExtractor is a mock implementation of searchcrawl.FieldExtractor.
type FieldExtractor struct {
	ExtractFieldsFn func(ctx context.Context, req *searchcrawl.ExtractRequest, pages []*searchcrawl.ScrapeResult) (map[string]any, error)
}

func (e *FieldExtractor) ExtractFields(ctx context.Context, req *searchcrawl.ExtractRequest, pages []*searchcrawl.ScrapeResult) (map[string]any, error) {
	return e.ExtractFieldsFn(ctx, req, pages)
}
