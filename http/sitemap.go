package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/searchcrawl"
)

// maxSitemapDepth bounds how many sitemap indexes may nest.
const maxSitemapDepth = 5

// Ensure SitemapService implements searchcrawl.SitemapService.
var _ searchcrawl.SitemapService = (*SitemapService)(nil)

// SitemapService discovers URLs from website sitemaps via HTTP.
type SitemapService struct {
	client *http.Client
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client}
}

// DiscoverURLs returns the canonical form of every page listed in the site's
// sitemaps, in document order and without duplicates. It returns an empty
// slice if the site has no sitemap.
//
// When baseURL has a path (e.g. https://example.com/docs), only pages at or
// below that path are returned.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *searchcrawl.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := searchcrawl.ParseURL(baseURL)
	if err != nil {
		return nil, err
	}

	sitemaps, err := s.locate(ctx, base.DomainRoot())
	if err != nil {
		return nil, err
	}

	w := &sitemapWalk{
		svc:     s,
		visited: make(map[string]bool),
		seen:    make(map[string]bool),
		keep: func(u searchcrawl.URL) bool {
			return underPath(u, base.Path()) && filter.Match(u.String())
		},
		urls: []string{},
	}
	for _, sitemap := range sitemaps {
		if err := w.walk(ctx, sitemap, 0); err != nil {
			return nil, err
		}
	}
	return w.urls, nil
}

// underPath reports whether u lies at or below prefix, respecting path
// segment boundaries: /docs matches /docs and /docs/intro, not /documentation.
func underPath(u searchcrawl.URL, prefix string) bool {
	if prefix == "" {
		return true
	}
	return u.Path() == prefix || strings.HasPrefix(u.Path(), prefix+"/")
}

// locate returns the sitemaps declared in robots.txt, or /sitemap.xml when
// robots.txt declares none and that file exists.
func (s *SitemapService) locate(ctx context.Context, root string) ([]string, error) {
	if sitemaps, err := s.robotsSitemaps(ctx, root+"/robots.txt"); err == nil && len(sitemaps) > 0 {
		return sitemaps, nil
	}

	fallback := root + "/sitemap.xml"
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, fallback, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, nil
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil
	}
	return []string{fallback}, nil
}

// robotsSitemaps reads the Sitemap directives of a robots.txt file.
func (s *SitemapService) robotsSitemaps(ctx context.Context, robotsURL string) ([]string, error) {
	body, err := s.get(ctx, robotsURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if value = strings.TrimSpace(value); value != "" {
			sitemaps = append(sitemaps, value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading robots.txt: %w", err)
	}
	return sitemaps, nil
}

// sitemapWalk collects page URLs across a tree of sitemaps.
type sitemapWalk struct {
	svc     *SitemapService
	visited map[string]bool // sitemap URLs already read
	seen    map[string]bool // canonical page URLs already collected
	keep    func(searchcrawl.URL) bool
	urls    []string
}

// walk reads one sitemap. Failures of sitemaps nested in an index are
// skipped; a failure of a top-level sitemap is returned.
func (w *sitemapWalk) walk(ctx context.Context, sitemapURL string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.visited[sitemapURL] || depth > maxSitemapDepth {
		return nil
	}
	w.visited[sitemapURL] = true

	root, err := w.svc.readSitemap(ctx, sitemapURL)
	if err != nil {
		if depth > 0 && ctx.Err() == nil {
			return nil
		}
		return err
	}

	if root.Tag == "sitemapindex" {
		for _, loc := range locs(root, "sitemap") {
			if err := w.walk(ctx, loc, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, loc := range locs(root, "url") {
		u, err := searchcrawl.ParseURL(loc)
		if err != nil || w.seen[u.Key()] || !w.keep(u) {
			continue
		}
		w.seen[u.Key()] = true
		w.urls = append(w.urls, u.String())
	}
	return nil
}

// locs returns the non-empty <loc> values of the given child elements.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if v := strings.TrimSpace(loc.Text()); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *SitemapService) readSitemap(ctx context.Context, sitemapURL string) (*etree.Element, error) {
	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parsing sitemap %s: %w", sitemapURL, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty sitemap %s", sitemapURL)
	}
	return root, nil
}

// get fetches a URL and returns the response body.
func (s *SitemapService) get(ctx context.Context, targetURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, targetURL)
	}
	return resp.Body, nil
}
