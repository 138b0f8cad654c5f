package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/searchcrawl"
	"github.com/fwojciec/searchcrawl/crawl"
	"github.com/fwojciec/searchcrawl/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// site maps canonical page URLs to the absolute links on each page.
type site map[string][]string

// fakeWeb serves a site through mock collaborators and counts fetches.
type fakeWeb struct {
	site site

	mu      sync.Mutex
	fetches map[string]int

	// fail lists pages whose fetch fails with empty HTML.
	fail map[string]bool
}

func newFakeWeb(s site) *fakeWeb {
	return &fakeWeb{site: s, fetches: make(map[string]int), fail: make(map[string]bool)}
}

func (w *fakeWeb) fetch(_ context.Context, url string) (*searchcrawl.FetchResult, error) {
	w.mu.Lock()
	w.fetches[url]++
	w.mu.Unlock()

	links, ok := w.site[url]
	if !ok || w.fail[url] {
		return &searchcrawl.FetchResult{URL: url}, errors.New("navigation timeout")
	}
	return &searchcrawl.FetchResult{URL: url, HTML: render(links)}, nil
}

func (w *fakeWeb) count(url string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fetches[url]
}

func (w *fakeWeb) total() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := 0
	for _, c := range w.fetches {
		n += c
	}
	return n
}

// render encodes links as a page whose body lists one link per line.
func render(links []string) string {
	return "<html>\n" + strings.Join(links, "\n")
}

func (w *fakeWeb) crawler() *crawl.Crawler {
	return newCrawler(&mock.Fetcher{FetchFn: w.fetch})
}

func newCrawler(fetcher searchcrawl.Fetcher) *crawl.Crawler {
	return &crawl.Crawler{
		Fetcher: fetcher,
		Extractor: &mock.Extractor{
			ExtractFn: func(html string) (*searchcrawl.ExtractResult, error) {
				return &searchcrawl.ExtractResult{
					Title:       "Page Title | Site",
					ShortTitle:  "Page Title",
					Author:      "Jane Doe",
					ContentHTML: "<main>" + html + "</main>",
				}, nil
			},
		},
		Converter: &mock.Converter{
			ConvertFn: func(html string) (string, error) {
				return "md:" + html, nil
			},
		},
		Links: &mock.LinkExtractor{
			ExtractLinksFn: func(html, _ string) ([]string, error) {
				return strings.Fields(html), nil
			},
		},
	}
}

// chain builds a linear pagination series of n pages. The first page is the
// bare list URL; every page links to its neighbours and to "?page=1".
func chain(n int) site {
	url := func(i int) string {
		if i == 1 {
			return "https://example.com/list"
		}
		return fmt.Sprintf("https://example.com/list?page=%d", i)
	}
	s := make(site, n)
	for i := 1; i <= n; i++ {
		links := []string{"https://example.com/list?page=1"}
		if i > 1 {
			links = append(links, url(i-1))
		}
		if i < n {
			links = append(links, url(i+1))
		}
		s[url(i)] = links
	}
	return s
}

func config(opts ...func(*searchcrawl.CrawlConfig)) searchcrawl.CrawlConfig {
	cfg := searchcrawl.DefaultCrawlConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

func maxDepth(d *int) func(*searchcrawl.CrawlConfig) {
	return func(c *searchcrawl.CrawlConfig) { c.MaxDepth = d }
}

func maxPages(n int) func(*searchcrawl.CrawlConfig) {
	return func(c *searchcrawl.CrawlConfig) { c.MaxPages = &n }
}

func scope(s searchcrawl.CrawlScope) func(*searchcrawl.CrawlConfig) {
	return func(c *searchcrawl.CrawlConfig) { c.Scope = s }
}

func urls(results []*searchcrawl.ScrapeResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.URL)
	}
	return out
}

func TestCrawler_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("fetches a self-linking seed once", func(t *testing.T) {
		t.Parallel()

		web := newFakeWeb(site{
			"https://example.com/a": {"https://example.com/a", "https://example.com/a/", "https://example.com/a?"},
		})

		results, err := web.crawler().Crawl(context.Background(), "https://example.com/a", config(maxDepth(nil), scope(searchcrawl.ScopeAll)))

		require.NoError(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, 1, web.total())
	})

	t.Run("depth ceiling on a pagination chain", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name  string
			depth *int
			want  int
		}{
			{"depth 1", searchcrawl.Ptr(1), 2},
			{"depth 3", searchcrawl.Ptr(3), 4},
			{"depth 0", searchcrawl.Ptr(0), 1},
			{"unbounded", nil, 10},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				t.Parallel()

				web := newFakeWeb(chain(10))
				results, err := web.crawler().Crawl(context.Background(), "https://example.com/list", config(maxDepth(tt.depth)))

				require.NoError(t, err)
				assert.Len(t, results, tt.want)
				assert.Equal(t, tt.want, web.total())
				for i, r := range results {
					assert.Equal(t, i, r.Depth)
				}
			})
		}
	})

	t.Run("page ceiling regardless of depth", func(t *testing.T) {
		t.Parallel()

		for _, depth := range []*int{nil, searchcrawl.Ptr(5), searchcrawl.Ptr(100)} {
			web := newFakeWeb(chain(10))
			results, err := web.crawler().Crawl(context.Background(), "https://example.com/list", config(maxDepth(depth), maxPages(3)))

			require.NoError(t, err)
			assert.Len(t, results, 3)
			assert.Equal(t, 3, web.total())
		}
	})

	t.Run("page 1 link is the seed", func(t *testing.T) {
		t.Parallel()

		web := newFakeWeb(chain(3))
		_, err := web.crawler().Crawl(context.Background(), "https://example.com/list", config(maxDepth(nil)))

		require.NoError(t, err)
		assert.Zero(t, web.count("https://example.com/list?page=1"))
		assert.Equal(t, 1, web.count("https://example.com/list"))
	})

	t.Run("scope selects followed links", func(t *testing.T) {
		t.Parallel()

		s := site{
			"https://example.com/list":        {"https://example.com/list?page=2", "https://example.com/about", "https://other.com/x"},
			"https://example.com/list?page=2": nil,
			"https://example.com/about":       nil,
			"https://other.com/x":             nil,
		}

		tests := []struct {
			scope searchcrawl.CrawlScope
			want  []string
		}{
			{searchcrawl.ScopePagination, []string{
				"https://example.com/list",
				"https://example.com/list?page=2",
			}},
			{searchcrawl.ScopeInternal, []string{
				"https://example.com/list",
				"https://example.com/about",
				"https://example.com/list?page=2",
			}},
			{searchcrawl.ScopeAll, []string{
				"https://example.com/list",
				"https://example.com/about",
				"https://example.com/list?page=2",
				"https://other.com/x",
			}},
		}
		for _, tt := range tests {
			t.Run(string(tt.scope), func(t *testing.T) {
				t.Parallel()

				web := newFakeWeb(s)
				results, err := web.crawler().Crawl(context.Background(), "https://example.com/list", config(scope(tt.scope)))

				require.NoError(t, err)
				assert.Equal(t, tt.want, urls(results))
			})
		}
	})

	t.Run("respects the concurrency bound", func(t *testing.T) {
		t.Parallel()

		var links []string
		for i := range 20 {
			links = append(links, fmt.Sprintf("https://example.com/item/%d", i))
		}

		var inFlight, peak atomic.Int64
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*searchcrawl.FetchResult, error) {
				n := inFlight.Add(1)
				defer inFlight.Add(-1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				if url == "https://example.com/" || url == "https://example.com" {
					return &searchcrawl.FetchResult{URL: url, HTML: render(links)}, nil
				}
				return &searchcrawl.FetchResult{URL: url, HTML: "<html>"}, nil
			},
		}

		cfg := config(scope(searchcrawl.ScopeInternal), func(c *searchcrawl.CrawlConfig) { c.Concurrency = 3 })
		results, err := newCrawler(fetcher).Crawl(context.Background(), "https://example.com", cfg)

		require.NoError(t, err)
		assert.Len(t, results, 21)
		assert.LessOrEqual(t, peak.Load(), int64(3))
		assert.GreaterOrEqual(t, peak.Load(), int64(1))
	})

	t.Run("isolates fetch failures", func(t *testing.T) {
		t.Parallel()

		web := newFakeWeb(site{
			"https://example.com":   {"https://example.com/a", "https://example.com/b", "https://example.com/c"},
			"https://example.com/a": nil,
			"https://example.com/b": {"https://example.com/d"},
			"https://example.com/c": nil,
			"https://example.com/d": nil,
		})
		web.fail["https://example.com/b"] = true

		results, err := web.crawler().Crawl(context.Background(), "https://example.com", config(scope(searchcrawl.ScopeInternal), maxDepth(nil)))

		require.NoError(t, err)
		require.Len(t, results, 4)

		var failed *searchcrawl.ScrapeResult
		for _, r := range results {
			if r.URL == "https://example.com/b" {
				failed = r
			} else {
				assert.False(t, r.Degraded(), r.URL)
			}
		}
		require.NotNil(t, failed)
		assert.True(t, failed.Degraded())
		assert.Contains(t, failed.Error, "navigation timeout")
		assert.Empty(t, failed.Content)
		assert.Empty(t, failed.Links)
		assert.Zero(t, web.count("https://example.com/d"))
	})

	t.Run("parses salvaged HTML of a failed fetch", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*searchcrawl.FetchResult, error) {
				return &searchcrawl.FetchResult{URL: url, HTML: "<p>partial</p>"}, errors.New("timeout")
			},
		}

		results, err := newCrawler(fetcher).Crawl(context.Background(), "https://example.com", config())

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "timeout", results[0].Error)
		assert.Equal(t, "md:<main><p>partial</p></main>", results[0].Content)
	})

	t.Run("keeps a page whose load timed out after the HTML arrived", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*searchcrawl.FetchResult, error) {
				calls.Add(1)
				return &searchcrawl.FetchResult{URL: url, HTML: "<p>full article</p>"}, context.DeadlineExceeded
			},
		}
		cache, store := memoryCache()
		c := newCrawler(crawl.NewRetryFetcher(fetcher, nil, nil))
		c.Cache = cache
		depth := 0

		start := time.Now()
		results, err := c.Crawl(context.Background(), "https://example.com/article", config(maxDepth(&depth)))

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, int32(1), calls.Load())
		assert.Less(t, time.Since(start), time.Second)
		assert.False(t, results[0].Degraded())
		assert.Empty(t, results[0].Error)
		assert.Equal(t, "md:<main><p>full article</p></main>", results[0].Content)
		assert.Contains(t, store, crawl.ScrapeCacheKey("https://example.com/article"))
	})

	t.Run("keeps a timed out page without the retry decorator", func(t *testing.T) {
		t.Parallel()

		fetcher := &mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*searchcrawl.FetchResult, error) {
				return &searchcrawl.FetchResult{URL: url, HTML: "<p>full article</p>"}, fmt.Errorf("navigate to %s: %w", url, context.DeadlineExceeded)
			},
		}
		cache, store := memoryCache()
		c := newCrawler(fetcher)
		c.Cache = cache
		depth := 0

		results, err := c.Crawl(context.Background(), "https://example.com/article", config(maxDepth(&depth)))

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.False(t, results[0].Degraded())
		assert.Contains(t, store, crawl.ScrapeCacheKey("https://example.com/article"))
	})

	t.Run("rejects an invalid seed before fetching", func(t *testing.T) {
		t.Parallel()

		web := newFakeWeb(site{})
		_, err := web.crawler().Crawl(context.Background(), "not a url", config())

		assert.Equal(t, searchcrawl.EINVALID, searchcrawl.ErrorCode(err))
		assert.Zero(t, web.total())
	})

	t.Run("rejects an invalid config", func(t *testing.T) {
		t.Parallel()

		web := newFakeWeb(site{})
		_, err := web.crawler().Crawl(context.Background(), "https://example.com", config(func(c *searchcrawl.CrawlConfig) { c.Concurrency = 0 }))

		assert.Equal(t, searchcrawl.EINVALID, searchcrawl.ErrorCode(err))
		assert.Zero(t, web.total())
	})

	t.Run("returns partial results on cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		web := newFakeWeb(chain(10))
		fetcher := &mock.Fetcher{
			FetchFn: func(ctx context.Context, url string) (*searchcrawl.FetchResult, error) {
				if url != "https://example.com/list" {
					cancel()
					return nil, ctx.Err()
				}
				return web.fetch(ctx, url)
			},
		}

		results, err := newCrawler(fetcher).Crawl(ctx, "https://example.com/list", config(maxDepth(nil)))

		require.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, []string{"https://example.com/list"}, urls(results))
	})

	t.Run("records resolved URL and resolves links against it", func(t *testing.T) {
		t.Parallel()

		var base string
		c := newCrawler(&mock.Fetcher{
			FetchFn: func(_ context.Context, url string) (*searchcrawl.FetchResult, error) {
				return &searchcrawl.FetchResult{URL: "https://www.example.com/docs/?b=2&a=1", HTML: "<html>"}, nil
			},
		})
		c.Links = &mock.LinkExtractor{
			ExtractLinksFn: func(_ string, baseURL string) ([]string, error) {
				base = baseURL
				return nil, nil
			},
		}

		results, err := c.Crawl(context.Background(), "http://example.com/docs", config())

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "http://example.com/docs", results[0].RequestedURL)
		assert.Equal(t, "https://www.example.com/docs?a=1&b=2", results[0].URL)
		assert.Equal(t, "https://www.example.com/docs/?b=2&a=1", base)
	})

	t.Run("renders the selected format", func(t *testing.T) {
		t.Parallel()

		html := "<html>\n<p>hi</p>"
		tests := []struct {
			format searchcrawl.OutputFormat
			want   string
		}{
			{searchcrawl.FormatFullHTML, html},
			{searchcrawl.FormatMainHTML, "<main>" + html + "</main>"},
			{searchcrawl.FormatFullMarkdown, "md:" + html},
			{searchcrawl.FormatMainMarkdown, "md:<main>" + html + "</main>"},
		}
		for _, tt := range tests {
			t.Run(string(tt.format), func(t *testing.T) {
				t.Parallel()

				c := newCrawler(&mock.Fetcher{
					FetchFn: func(_ context.Context, url string) (*searchcrawl.FetchResult, error) {
						return &searchcrawl.FetchResult{URL: url, HTML: html}, nil
					},
				})

				results, err := c.Crawl(context.Background(), "https://example.com", config(func(c *searchcrawl.CrawlConfig) { c.Format = tt.format }))

				require.NoError(t, err)
				require.Len(t, results, 1)
				r := results[0]
				assert.Equal(t, tt.want, r.Content)
				assert.Equal(t, tt.format, r.Format)
				assert.Equal(t, crawl.ComputeHash(tt.want), r.ContentHash)
				assert.Equal(t, "Page Title | Site", r.Title)
				assert.Equal(t, "Page Title", r.ShortTitle)
				assert.Equal(t, "Jane Doe", r.Author)
			})
		}
	})

	t.Run("tolerates extraction failures", func(t *testing.T) {
		t.Parallel()

		web := newFakeWeb(site{"https://example.com": nil})
		c := web.crawler()
		c.Extractor = &mock.Extractor{
			ExtractFn: func(string) (*searchcrawl.ExtractResult, error) {
				return nil, errors.New("malformed")
			},
		}

		results, err := c.Crawl(context.Background(), "https://example.com", config())

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Empty(t, results[0].Title)
		assert.Empty(t, results[0].Content)
		assert.False(t, results[0].Degraded())
	})

	t.Run("serves repeat fetches from the cache", func(t *testing.T) {
		t.Parallel()

		cache, store := memoryCache()
		web := newFakeWeb(chain(3))
		c := web.crawler()
		c.Cache = cache
		cfg := config(maxDepth(nil))

		first, err := c.Crawl(context.Background(), "https://example.com/list", cfg)
		require.NoError(t, err)
		second, err := c.Crawl(context.Background(), "https://example.com/list", cfg)
		require.NoError(t, err)

		assert.Equal(t, 3, web.total())
		assert.Equal(t, urls(first), urls(second))
		assert.Contains(t, store, "scrape:https://example.com/list")
	})

	t.Run("does not cache degraded fetches", func(t *testing.T) {
		t.Parallel()

		cache, store := memoryCache()
		web := newFakeWeb(site{"https://example.com": nil})
		web.fail["https://example.com"] = true
		c := web.crawler()
		c.Cache = cache

		_, err := c.Crawl(context.Background(), "https://example.com", config())
		require.NoError(t, err)
		_, err = c.Crawl(context.Background(), "https://example.com", config())
		require.NoError(t, err)

		assert.Equal(t, 2, web.total())
		assert.Empty(t, store)
	})

	t.Run("reports progress", func(t *testing.T) {
		t.Parallel()

		web := newFakeWeb(chain(3))
		web.fail["https://example.com/list?page=3"] = true
		c := web.crawler()

		var events []crawl.ProgressEvent
		c.Progress = func(e crawl.ProgressEvent) { events = append(events, e) }

		_, err := c.Crawl(context.Background(), "https://example.com/list", config(maxDepth(nil)))

		require.NoError(t, err)
		require.Len(t, events, 5)
		assert.Equal(t, crawl.ProgressStarted, events[0].Type)
		assert.Equal(t, crawl.ProgressCompleted, events[1].Type)
		assert.Equal(t, crawl.ProgressCompleted, events[2].Type)
		assert.Equal(t, crawl.ProgressFailed, events[3].Type)
		assert.Error(t, events[3].Error)
		assert.Equal(t, crawl.ProgressFinished, events[4].Type)
		assert.Equal(t, 3, events[4].Completed)
		for _, e := range events {
			assert.NotEmpty(t, e.RunID)
			assert.Equal(t, events[0].RunID, e.RunID)
		}
	})
}

func TestCrawler_CrawlMany(t *testing.T) {
	t.Parallel()

	t.Run("runs independent crawls", func(t *testing.T) {
		t.Parallel()

		s := chain(3)
		s["https://docs.example.com"] = []string{"https://example.com/list"}
		web := newFakeWeb(s)

		results, err := web.crawler().CrawlMany(context.Background(),
			[]string{"https://example.com/list", "https://docs.example.com"},
			config(maxDepth(nil), scope(searchcrawl.ScopeAll)))

		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Len(t, results[0], 3)
		assert.Equal(t, "https://example.com/list", results[0][0].URL)
		assert.Len(t, results[1], 4)
		assert.Equal(t, "https://docs.example.com", results[1][0].URL)

		// Visited sets are not shared, so the list is fetched by both crawls.
		assert.Equal(t, 2, web.count("https://example.com/list"))
	})

	t.Run("validates every seed first", func(t *testing.T) {
		t.Parallel()

		web := newFakeWeb(chain(3))
		_, err := web.crawler().CrawlMany(context.Background(),
			[]string{"https://example.com/list", "::bad::"}, config())

		assert.Equal(t, searchcrawl.EINVALID, searchcrawl.ErrorCode(err))
		assert.Zero(t, web.total())
	})

	t.Run("empty seeds", func(t *testing.T) {
		t.Parallel()

		results, err := newFakeWeb(site{}).crawler().CrawlMany(context.Background(), nil, config())

		require.NoError(t, err)
		assert.Empty(t, results)
	})
}
