// Package rod implements searchcrawl.Fetcher with a headless Chrome browser
// driven by go-rod.
package rod

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/fwojciec/searchcrawl"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Ensure Fetcher implements searchcrawl.Fetcher at compile time.
var _ searchcrawl.Fetcher = (*Fetcher)(nil)

// DefaultFetchTimeout bounds navigation and load of a single page.
const DefaultFetchTimeout = 5 * time.Second

// snapshotTimeout bounds reading the URL and HTML of a page, which also
// happens after a navigation failure.
const snapshotTimeout = 2 * time.Second

// serializeJS returns the document with open shadow roots inlined as
// declarative shadow DOM templates, or null when the browser lacks getHTML.
const serializeJS = `() => {
	const root = document.documentElement;
	if (!root || typeof root.getHTML !== 'function') {
		return null;
	}
	const roots = [];
	const walk = (node) => {
		for (const el of node.querySelectorAll('*')) {
			if (el.shadowRoot) {
				roots.push(el.shadowRoot);
				walk(el.shadowRoot);
			}
		}
	};
	walk(document);
	const attrs = Array.from(root.attributes)
		.map((a) => ' ' + a.name + '="' + a.value.replace(/"/g, '&quot;') + '"')
		.join('');
	const doctype = document.doctype ? '<!DOCTYPE ' + document.doctype.name + '>' : '';
	return doctype + '<html' + attrs + '>' + root.getHTML({shadowRoots: roots}) + '</html>';
}`

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager *BrowserManager
	timeout time.Duration
	stealth bool
	closed  atomic.Bool
}

type fetcherConfig struct {
	timeout     time.Duration
	stealth     bool
	managerOpts []ManagerOption
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*fetcherConfig)

// WithFetchTimeout sets the per-page navigation timeout.
// Defaults to DefaultFetchTimeout.
func WithFetchTimeout(d time.Duration) FetcherOption {
	return func(c *fetcherConfig) {
		c.timeout = d
	}
}

// WithStealth opens pages with fingerprint evasions applied.
func WithStealth() FetcherOption {
	return func(c *fetcherConfig) {
		c.stealth = true
	}
}

// WithPagesPerBrowser sets how many pages one browser process serves before
// it is replaced. Defaults to DefaultMaxPages.
func WithPagesPerBrowser(n int) FetcherOption {
	return func(c *fetcherConfig) {
		c.managerOpts = append(c.managerOpts, WithMaxPages(n))
	}
}

// NewFetcher launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...FetcherOption) (*Fetcher, error) {
	cfg := fetcherConfig{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(cfg.managerOpts...)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		manager: manager,
		timeout: cfg.timeout,
		stealth: cfg.stealth,
	}, nil
}

// Fetch navigates to the URL and returns the rendered HTML together with the
// URL the browser ended on.
//
// When navigation fails or times out, Fetch still returns whatever the page
// holds at that moment along with the error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*searchcrawl.FetchResult, error) {
	if f.closed.Load() {
		return nil, searchcrawl.Errorf(searchcrawl.EINVALID, "fetcher closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	browser, release, err := f.manager.Acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	page, err := f.newPage(browser)
	if err != nil {
		return nil, fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	navErr := f.load(ctx, page, url)

	result, committed, snapErr := snapshot(ctx, page, url)
	switch {
	case navErr != nil && snapErr == nil && committed && loadTimedOut(ctx, navErr):
		// The document arrived but the load event never fired in time.
		return result, nil
	case navErr != nil:
		if !committed {
			result = nil
		}
		return result, fmt.Errorf("navigate to %s: %w", url, navErr)
	case snapErr != nil:
		return nil, fmt.Errorf("read %s: %w", url, snapErr)
	}
	return result, nil
}

// loadTimedOut reports whether err came from the per-page load timeout
// rather than from the caller giving up.
func loadTimedOut(ctx context.Context, err error) bool {
	return errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
}

func (f *Fetcher) newPage(browser *rod.Browser) (*rod.Page, error) {
	if f.stealth {
		return stealth.Page(browser)
	}
	return browser.Page(proto.TargetCreateTarget{})
}

func (f *Fetcher) load(ctx context.Context, page *rod.Page, url string) error {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	p := page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return err
	}
	return p.WaitLoad()
}

// snapshot reads the current URL and HTML of page. committed reports whether
// the page had left about:blank, i.e. whether the HTML belongs to the target
// document. A nil result is returned only when no HTML could be read.
func snapshot(ctx context.Context, page *rod.Page, requested string) (result *searchcrawl.FetchResult, committed bool, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()

	p := page.Context(ctx)

	resolved := requested
	if info, err := p.Info(); err == nil && info.URL != "" && info.URL != "about:blank" {
		resolved = info.URL
	}
	// Target info can report a pending navigation; the document's own
	// location only changes once the response is committed.
	if res, err := p.Eval(`() => location.href`); err == nil {
		href := res.Value.Str()
		committed = href != "" && href != "about:blank"
	}

	html, err := serialize(p)
	if err != nil {
		return nil, committed, err
	}
	return &searchcrawl.FetchResult{URL: resolved, HTML: html}, committed, nil
}

// serialize returns the page HTML including open shadow roots, falling back
// to the light DOM when the browser cannot serialize shadow trees.
func serialize(page *rod.Page) (string, error) {
	res, err := page.Eval(serializeJS)
	if err == nil && !res.Value.Nil() {
		if html := res.Value.Str(); html != "" {
			return html, nil
		}
	}
	return page.HTML()
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the current browser launcher.
// This method exists for testing purposes to verify proper cleanup.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
