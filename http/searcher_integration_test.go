//go:build integration

package http_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fwojciec/searchcrawl"
	schttp "github.com/fwojciec/searchcrawl/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSearcher_Integration_SearXNG needs a SearXNG instance with the JSON
// format enabled, e.g. SEARXNG_URL=http://localhost:8080.
func TestSearcher_Integration_SearXNG(t *testing.T) {
	t.Parallel()

	baseURL := os.Getenv("SEARXNG_URL")
	if baseURL == "" {
		t.Skip("SEARXNG_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req := searchcrawl.NewSearchRequest("golang pagination")
	req.MaxResults = 5

	results, err := schttp.NewSearcher(baseURL).Search(ctx, req)

	require.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 5)
	for _, r := range results {
		_, err := searchcrawl.ParseURL(r.URL)
		assert.NoError(t, err, r.URL)
	}
}
