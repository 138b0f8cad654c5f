package crawl_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/fwojciec/searchcrawl"
	"github.com/fwojciec/searchcrawl/crawl"
	"github.com/stretchr/testify/assert"
)

func TestVisitedSet_Visit(t *testing.T) {
	t.Parallel()

	t.Run("claims a URL once", func(t *testing.T) {
		t.Parallel()

		v := crawl.NewVisitedSet()
		u := searchcrawl.MustParseURL("https://example.com/a")

		assert.True(t, v.Visit(u, nil))
		assert.False(t, v.Visit(u, nil))
		assert.True(t, v.Contains(u))
	})

	t.Run("treats query order and trailing slash as the same page", func(t *testing.T) {
		t.Parallel()

		v := crawl.NewVisitedSet()

		assert.True(t, v.Visit(searchcrawl.MustParseURL("https://example.com/a/?x=1&y=2"), nil))
		assert.False(t, v.Visit(searchcrawl.MustParseURL("https://example.com/a?y=2&x=1"), nil))
	})

	t.Run("merges first page with bare address", func(t *testing.T) {
		t.Parallel()

		v := crawl.NewVisitedSet()

		assert.True(t, v.Visit(searchcrawl.MustParseURL("https://example.com/a"), nil))
		assert.False(t, v.Visit(searchcrawl.MustParseURL("https://example.com/a?page=1"), nil))
		assert.False(t, v.Visit(searchcrawl.MustParseURL("https://example.com/a/page/1"), nil))
		assert.True(t, v.Visit(searchcrawl.MustParseURL("https://example.com/a?page=2"), nil))
	})

	t.Run("merges bare address with first page seen earlier", func(t *testing.T) {
		t.Parallel()

		v := crawl.NewVisitedSet()

		assert.True(t, v.Visit(searchcrawl.MustParseURL("https://example.com/a?p=1"), nil))
		assert.False(t, v.Visit(searchcrawl.MustParseURL("https://example.com/a/"), nil))
	})

	t.Run("membership matches Equivalent", func(t *testing.T) {
		t.Parallel()

		raws := []string{
			"https://example.com/a",
			"https://example.com/a?page=1",
			"https://example.com/a/page/1",
			"https://example.com/a?page=2",
			"https://example.com/a?sort=asc",
			"https://example.com/b/p-1",
			"https://example.com/b",
			"https://example.com/a?page=1&sort=asc",
		}
		for _, first := range raws {
			for _, second := range raws {
				v := crawl.NewVisitedSet()
				a := searchcrawl.MustParseURL(first)
				b := searchcrawl.MustParseURL(second)
				v.Visit(a, nil)
				assert.Equal(t, a.Equivalent(b), v.Contains(b), "%s then %s", first, second)
			}
		}
	})

	t.Run("refuses once max pages are claimed", func(t *testing.T) {
		t.Parallel()

		v := crawl.NewVisitedSet()
		limit := 2

		assert.True(t, v.Visit(searchcrawl.MustParseURL("https://example.com/1"), &limit))
		assert.True(t, v.Visit(searchcrawl.MustParseURL("https://example.com/2"), &limit))
		assert.False(t, v.Visit(searchcrawl.MustParseURL("https://example.com/3"), &limit))
		assert.False(t, v.Contains(searchcrawl.MustParseURL("https://example.com/3")))
		assert.False(t, v.Visit(searchcrawl.MustParseURL("https://example.com/1"), &limit))
	})

	t.Run("filter false positives never skip a page", func(t *testing.T) {
		t.Parallel()

		// A filter sized for one key at a 99% false positive rate answers
		// "maybe" for nearly everything once a few keys are in.
		v := crawl.NewVisitedSetSized(1, 0.99)

		for i := range 200 {
			u := searchcrawl.MustParseURL(fmt.Sprintf("https://example.com/item/%d", i))
			assert.True(t, v.Visit(u, nil), "item %d", i)
		}
		assert.False(t, v.Contains(searchcrawl.MustParseURL("https://example.com/item/200")))
		assert.True(t, v.Contains(searchcrawl.MustParseURL("https://example.com/item/7")))
	})

	t.Run("concurrent visitors claim a page once", func(t *testing.T) {
		t.Parallel()

		v := crawl.NewVisitedSet()
		u := searchcrawl.MustParseURL("https://example.com/race")

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 50 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if v.Visit(u, nil) {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})
}
