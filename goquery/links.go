// Package goquery implements searchcrawl.LinkExtractor using goquery.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/searchcrawl"
)

// DefaultLinkSelector matches every anchor with an href.
const DefaultLinkSelector = "a[href]"

// Ensure LinkExtractor implements searchcrawl.LinkExtractor.
var _ searchcrawl.LinkExtractor = (*LinkExtractor)(nil)

// LinkExtractor collects the outbound links of a page.
type LinkExtractor struct {
	selector string
}

// Option configures a LinkExtractor.
type Option func(*LinkExtractor)

// WithSelector restricts extraction to anchors matching a CSS selector,
// e.g. "main a[href]".
func WithSelector(sel string) Option {
	return func(e *LinkExtractor) {
		e.selector = sel
	}
}

// NewLinkExtractor creates a LinkExtractor.
func NewLinkExtractor(opts ...Option) *LinkExtractor {
	e := &LinkExtractor{selector: DefaultLinkSelector}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractLinks returns the absolute form of every link in html, in document
// order, with fragments stripped. Relative links resolve against the page's
// <base href> when present, otherwise against baseURL. Non-HTTP links
// (javascript:, mailto:, tel:, data:) are skipped. Duplicates are kept; the
// caller decides what counts as the same page.
func (e *LinkExtractor) ExtractLinks(html string, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, searchcrawl.Errorf(searchcrawl.EINVALID, "invalid base URL: %v", err)
	}

	links := []string{}
	if strings.TrimSpace(html) == "" {
		return links, nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, searchcrawl.Errorf(searchcrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if resolved := resolveURL(base, href); resolved != nil {
			base = resolved
		}
	}

	doc.Find(e.selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok || strings.TrimSpace(href) == "" || isNonHTTPLink(href) {
			return
		}
		if resolved := resolveURL(base, href); resolved != nil {
			links = append(links, resolved.String())
		}
	})
	return links, nil
}

// resolveURL resolves href against base and strips the fragment.
// It returns nil if href cannot be parsed.
func resolveURL(base *url.URL, href string) *url.URL {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved
}

// isNonHTTPLink checks if the href uses a scheme that cannot be fetched.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
