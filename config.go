package searchcrawl

import "strings"

// CrawlScope selects which discovered links a crawl follows.
type CrawlScope string

// Supported crawl scopes.
const (
	// ScopePagination follows only further pages of the current series.
	ScopePagination CrawlScope = "pagination"
	// ScopeInternal follows every link on the same site.
	ScopeInternal CrawlScope = "internal"
	// ScopeAll follows every link, including other sites.
	ScopeAll CrawlScope = "all"
)

// ParseCrawlScope converts a case-insensitive name into a CrawlScope.
func ParseCrawlScope(s string) (CrawlScope, error) {
	scope := CrawlScope(strings.ToLower(strings.TrimSpace(s)))
	switch scope {
	case ScopePagination, ScopeInternal, ScopeAll:
		return scope, nil
	}
	return "", Errorf(EINVALID, "unknown crawl scope %q", s)
}

// Default crawl settings.
const (
	DefaultMaxDepth    = 1
	DefaultConcurrency = 2
)

// CrawlConfig controls a single crawl invocation.
type CrawlConfig struct {
	Scope CrawlScope

	// MaxDepth stops recursion below this depth. The seed is depth 0.
	// Nil means unbounded.
	MaxDepth *int

	// MaxPages caps the number of pages fetched. Nil means unbounded.
	MaxPages *int

	// Concurrency is the maximum number of fetches in flight.
	Concurrency int

	Format OutputFormat
	Cache  CachePolicy
}

// DefaultCrawlConfig returns the configuration used when a caller sets nothing:
// pagination scope, depth 1, no page limit, two concurrent fetches, main
// content as Markdown, and the default cache policy.
func DefaultCrawlConfig() CrawlConfig {
	depth := DefaultMaxDepth
	return CrawlConfig{
		Scope:       ScopePagination,
		MaxDepth:    &depth,
		Concurrency: DefaultConcurrency,
		Format:      FormatMainMarkdown,
		Cache:       DefaultCachePolicy(),
	}
}

// Validate returns an error if the config contains invalid fields.
func (c CrawlConfig) Validate() error {
	switch c.Scope {
	case ScopePagination, ScopeInternal, ScopeAll:
	default:
		return Errorf(EINVALID, "unknown crawl scope %q", c.Scope)
	}
	if c.MaxDepth != nil && *c.MaxDepth < 0 {
		return Errorf(EINVALID, "max depth must not be negative")
	}
	if c.MaxPages != nil && *c.MaxPages < 0 {
		return Errorf(EINVALID, "max pages must not be negative")
	}
	if c.Concurrency < 1 {
		return Errorf(EINVALID, "concurrency must be at least 1")
	}
	if _, err := ParseOutputFormat(string(c.Format)); err != nil {
		return err
	}
	return c.Cache.Validate()
}

// Ptr returns a pointer to v. It is a convenience for optional config fields.
func Ptr[T any](v T) *T {
	return &v
}
