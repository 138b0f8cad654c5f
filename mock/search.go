package mock

import (
	"context"

	"github.com/fwojciec/searchcrawl"
)

var _ searchcrawl.Searcher = (*Searcher)(nil)

// Searcher is a mock implementation of searchcrawl.Searcher.
type Searcher struct {
	SearchFn func(ctx context.Context, req *searchcrawl.SearchRequest) ([]*searchcrawl.SearchResult, error)
}

func (s *Searcher) Search(ctx context.Context, req *searchcrawl.SearchRequest) ([]*searchcrawl.SearchResult, error) {
	return s.SearchFn(ctx, req)
}
