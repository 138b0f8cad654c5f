// Package bloom provides a probabilistic membership filter for crawl keys.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter wraps a Bloom filter. It is not safe for concurrent use; callers
// guard it with their own lock.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected keys
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records keys in the filter.
func (f *Filter) Add(keys ...string) {
	for _, k := range keys {
		f.f.AddString(k)
	}
}

// TestAny returns true if any of the keys might be in the filter. A false
// result proves none of them were added.
func (f *Filter) TestAny(keys ...string) bool {
	for _, k := range keys {
		if f.f.TestString(k) {
			return true
		}
	}
	return false
}
