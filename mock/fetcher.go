package mock

import (
	"context"

	"github.com/fwojciec/searchcrawl"
)

var _ searchcrawl.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of searchcrawl.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*searchcrawl.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*searchcrawl.FetchResult, error) {
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}
