package http_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/fwojciec/searchcrawl"
	schttp "github.com/fwojciec/searchcrawl/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searxngResponse = `{
  "query": "golang",
  "results": [
    {"url": "https://go.dev", "title": "The Go Programming Language", "content": "Build simple, secure, scalable systems.", "thumbnail": "https://go.dev/thumb.png"},
    {"url": "https://pkg.go.dev", "title": "Go Packages", "content": null},
    {"url": "https://gobyexample.com", "title": "Go by Example", "content": "Hands-on introduction."}
  ]
}`

// searxngServer serves canned JSON and records the query of each request.
func searxngServer(t *testing.T, status int, body string) (*httptest.Server, <-chan url.Values) {
	t.Helper()

	queries := make(chan url.Values, 10)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		queries <- r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, queries
}

func TestSearcher_Search(t *testing.T) {
	t.Parallel()

	t.Run("sends query parameters and decodes results", func(t *testing.T) {
		t.Parallel()

		srv, queries := searxngServer(t, http.StatusOK, searxngResponse)
		req := searchcrawl.NewSearchRequest("golang")
		req.TimeRange = searchcrawl.TimeRangeMonth
		req.Page = 2

		results, err := schttp.NewSearcher(srv.URL+"/", schttp.WithClient(srv.Client())).Search(context.Background(), req)

		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "https://go.dev", results[0].URL)
		assert.Equal(t, "https://go.dev/thumb.png", results[0].Thumbnail)
		assert.Empty(t, results[1].Content)

		q := <-queries
		assert.Equal(t, "golang", q.Get("q"))
		assert.Equal(t, "brave,duckduckgo,google,presearch,startpage,yahoo", q.Get("engines"))
		assert.Equal(t, "en", q.Get("language"))
		assert.Equal(t, "2", q.Get("pageno"))
		assert.Equal(t, "month", q.Get("time_range"))
		assert.Equal(t, "json", q.Get("format"))
	})

	t.Run("uses explicit engines over the preset", func(t *testing.T) {
		t.Parallel()

		srv, queries := searxngServer(t, http.StatusOK, `{"results": []}`)
		req := searchcrawl.NewSearchRequest("cats")
		req.Engines = []string{"google images"}

		results, err := schttp.NewSearcher(srv.URL, schttp.WithClient(srv.Client())).Search(context.Background(), req)

		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
		q := <-queries
		assert.Equal(t, "google images", q.Get("engines"))
		assert.False(t, q.Has("time_range"))
	})

	t.Run("truncates to max results", func(t *testing.T) {
		t.Parallel()

		srv, _ := searxngServer(t, http.StatusOK, searxngResponse)
		req := searchcrawl.NewSearchRequest("golang")
		req.MaxResults = 2

		results, err := schttp.NewSearcher(srv.URL, schttp.WithClient(srv.Client())).Search(context.Background(), req)

		require.NoError(t, err)
		assert.Len(t, results, 2)
	})

	t.Run("reports upstream failures as unavailable", func(t *testing.T) {
		t.Parallel()

		srv, _ := searxngServer(t, http.StatusTooManyRequests, "")

		_, err := schttp.NewSearcher(srv.URL, schttp.WithClient(srv.Client())).Search(context.Background(), searchcrawl.NewSearchRequest("golang"))

		assert.Equal(t, searchcrawl.EUNAVAILABLE, searchcrawl.ErrorCode(err))
	})

	t.Run("rejects invalid requests", func(t *testing.T) {
		t.Parallel()

		srv, queries := searxngServer(t, http.StatusOK, searxngResponse)

		_, err := schttp.NewSearcher(srv.URL, schttp.WithClient(srv.Client())).Search(context.Background(), searchcrawl.NewSearchRequest("  "))

		assert.Equal(t, searchcrawl.EINVALID, searchcrawl.ErrorCode(err))
		assert.Empty(t, queries)
	})

	t.Run("rate limits queries", func(t *testing.T) {
		t.Parallel()

		srv, _ := searxngServer(t, http.StatusOK, searxngResponse)
		s := schttp.NewSearcher(srv.URL, schttp.WithClient(srv.Client()), schttp.WithRate(20))

		start := time.Now()
		for range 3 {
			_, err := s.Search(context.Background(), searchcrawl.NewSearchRequest("golang"))
			require.NoError(t, err)
		}

		// Burst of one: the second and third queries each wait ~50ms.
		assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	})

	t.Run("respects context cancellation while rate limited", func(t *testing.T) {
		t.Parallel()

		srv, _ := searxngServer(t, http.StatusOK, searxngResponse)
		s := schttp.NewSearcher(srv.URL, schttp.WithClient(srv.Client()), schttp.WithRate(0.01))
		_, err := s.Search(context.Background(), searchcrawl.NewSearchRequest("golang"))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err = s.Search(ctx, searchcrawl.NewSearchRequest("golang"))
		require.Error(t, err)
	})
}
