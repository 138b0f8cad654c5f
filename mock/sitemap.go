package mock

import (
	"context"

	"github.com/fwojciec/searchcrawl"
)

var _ searchcrawl.SitemapService = (*SitemapService)(nil)

// SitemapService is a mock implementation of searchcrawl.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *searchcrawl.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *searchcrawl.URLFilter) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}
