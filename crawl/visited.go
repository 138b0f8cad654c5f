package crawl

import (
	"sync"

	"github.com/fwojciec/searchcrawl"
	"github.com/fwojciec/searchcrawl/bloom"
)

// Visited set sizing for the Bloom filter in front of the index.
const (
	visitedExpectedURLs      = 10000
	visitedFalsePositiveRate = 0.01
)

// Index key prefixes. A visited URL is indexed under its canonical form and,
// depending on its pagination, under one extra key that lets an equivalent
// first-page or bare address find it.
const (
	keyCanonical = "c:"
	keyPathRoot  = "r:"
	keyFirstPage = "p1:"
)

// VisitedSet records the pages a single crawl has claimed. Membership follows
// searchcrawl.URL.Equivalent, so "/a?page=1" and "/a" claim the same slot.
//
// The index map is the only source of membership. A Bloom filter sits in
// front of it as a fast negative check: most URLs a crawl discovers are new,
// and a filter miss settles that without building map lookups. A filter hit
// proves nothing and always falls through to the index, so false positives
// never skip a page.
//
// VisitedSet is safe for concurrent use by multiple goroutines.
type VisitedSet struct {
	mu    sync.Mutex
	seen  *bloom.Filter
	index map[string]struct{}
	count int
}

// NewVisitedSet creates an empty VisitedSet.
func NewVisitedSet() *VisitedSet {
	return newVisitedSet(visitedExpectedURLs, visitedFalsePositiveRate)
}

func newVisitedSet(n uint, fpRate float64) *VisitedSet {
	return &VisitedSet{
		seen:  bloom.NewFilter(n, fpRate),
		index: make(map[string]struct{}),
	}
}

// Visit claims u for fetching. It returns false, leaving the set unchanged,
// when an equivalent URL was already claimed or when maxPages is set and
// that many pages have been claimed. The check and the insert happen under
// one lock, so concurrent callers never claim the same page twice.
func (v *VisitedSet) Visit(u searchcrawl.URL, maxPages *int) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.contains(u) {
		return false
	}
	if maxPages != nil && v.count >= *maxPages {
		return false
	}

	keys := insertKeys(u)
	v.seen.Add(keys...)
	for _, k := range keys {
		v.index[k] = struct{}{}
	}
	v.count++
	return true
}

// Contains reports whether a URL equivalent to u has been claimed.
func (v *VisitedSet) Contains(u searchcrawl.URL) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.contains(u)
}

// contains must be called with mu held. The filter only answers "no".
func (v *VisitedSet) contains(u searchcrawl.URL) bool {
	keys := lookupKeys(u)
	if !v.seen.TestAny(keys...) {
		return false
	}
	for _, k := range keys {
		if _, ok := v.index[k]; ok {
			return true
		}
	}
	return false
}

// insertKeys returns the keys a claimed URL is stored under.
func insertKeys(u searchcrawl.URL) []string {
	keys := []string{keyCanonical + u.Canonical()}
	page, ok := u.PageNumber()
	switch {
	case !ok:
		keys = append(keys, keyPathRoot+u.PathRoot())
	case page == 1:
		keys = append(keys, keyFirstPage+u.PaginationBase())
	}
	return keys
}

// lookupKeys returns the keys under which an equivalent claimed URL would be
// stored: the same canonical form, the bare address a first page merges
// with, or the first page a bare address merges with.
func lookupKeys(u searchcrawl.URL) []string {
	keys := []string{keyCanonical + u.Canonical()}
	page, ok := u.PageNumber()
	switch {
	case !ok:
		keys = append(keys, keyFirstPage+u.PathRoot())
	case page == 1:
		keys = append(keys, keyPathRoot+u.PaginationBase())
	}
	return keys
}
