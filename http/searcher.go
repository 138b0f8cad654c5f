package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/fwojciec/searchcrawl"
	"golang.org/x/time/rate"
)

// DefaultSearchRate is the default number of queries per second sent to the
// search engine.
const DefaultSearchRate = 2

// Ensure Searcher implements searchcrawl.Searcher.
var _ searchcrawl.Searcher = (*Searcher)(nil)

// Searcher queries a SearXNG instance through its JSON API.
type Searcher struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

// SearcherOption configures a Searcher.
type SearcherOption func(*Searcher)

// WithClient sets the HTTP client used for queries.
func WithClient(c *http.Client) SearcherOption {
	return func(s *Searcher) {
		s.client = c
	}
}

// WithRate limits queries to rps per second. Zero or less disables the limit.
func WithRate(rps float64) SearcherOption {
	return func(s *Searcher) {
		if rps <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewSearcher creates a Searcher for the SearXNG instance at baseURL,
// e.g. "http://searxng:8080".
func NewSearcher(baseURL string, opts ...SearcherOption) *Searcher {
	s := &Searcher{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: DefaultFetchTimeout},
		limiter: rate.NewLimiter(DefaultSearchRate, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// searchResponse is the subset of the SearXNG JSON response we read.
type searchResponse struct {
	Results []*searchcrawl.SearchResult `json:"results"`
}

// Search runs req and returns at most req.MaxResults hits.
func (s *Searcher) Search(ctx context.Context, req *searchcrawl.SearchRequest) ([]*searchcrawl.SearchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	params := url.Values{}
	params.Set("q", req.Query)
	params.Set("engines", strings.Join(req.EngineList(), ","))
	params.Set("language", req.Language)
	params.Set("pageno", strconv.Itoa(req.Page))
	if req.TimeRange != "" {
		params.Set("time_range", req.TimeRange)
	}
	params.Set("format", "json")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, searchcrawl.Errorf(searchcrawl.EUNAVAILABLE, "search engine unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, searchcrawl.Errorf(searchcrawl.EUNAVAILABLE, "search engine returned HTTP %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	results := body.Results
	if results == nil {
		results = []*searchcrawl.SearchResult{}
	}
	if req.MaxResults > 0 && len(results) > req.MaxResults {
		results = results[:req.MaxResults]
	}
	return results, nil
}
