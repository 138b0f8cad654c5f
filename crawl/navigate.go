package crawl

import (
	"slices"

	"github.com/fwojciec/searchcrawl"
)

// Navigation holds the links found on a page, split by how far they stray
// from it. Each list is sorted and holds canonical URLs without duplicates.
type Navigation struct {
	// Links is every HTTP link on the page.
	Links []string
	// InternalLinks are links on the same site as the page.
	InternalLinks []string
	// PaginationLinks are internal links to pages of the same series.
	PaginationLinks []string
}

// Navigate classifies absolute links found on the page at current. Links
// that do not parse as absolute HTTP(S) URLs are dropped.
func Navigate(rawLinks []string, current searchcrawl.URL) Navigation {
	nav := Navigation{
		Links:           []string{},
		InternalLinks:   []string{},
		PaginationLinks: []string{},
	}

	seen := make(map[string]struct{}, len(rawLinks))
	for _, raw := range rawLinks {
		u, err := searchcrawl.ParseURL(raw)
		if err != nil {
			continue
		}
		if u.Scheme() != "http" && u.Scheme() != "https" {
			continue
		}
		if _, ok := seen[u.Key()]; ok {
			continue
		}
		seen[u.Key()] = struct{}{}

		nav.Links = append(nav.Links, u.Canonical())
		if u.DomainRoot() != current.DomainRoot() {
			continue
		}
		nav.InternalLinks = append(nav.InternalLinks, u.Canonical())
		if u.IsPaginationOf(current) {
			nav.PaginationLinks = append(nav.PaginationLinks, u.Canonical())
		}
	}

	slices.Sort(nav.Links)
	slices.Sort(nav.InternalLinks)
	slices.Sort(nav.PaginationLinks)
	return nav
}

// Select returns the links a crawl with the given scope follows.
func (n Navigation) Select(scope searchcrawl.CrawlScope) []string {
	switch scope {
	case searchcrawl.ScopeAll:
		return n.Links
	case searchcrawl.ScopeInternal:
		return n.InternalLinks
	default:
		return n.PaginationLinks
	}
}
