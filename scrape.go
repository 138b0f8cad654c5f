package searchcrawl

import "strings"

// OutputFormat selects which representation of a page ScrapeResult.Content holds.
type OutputFormat string

// Supported output formats.
const (
	// FormatFullMarkdown is the whole rendered page as Markdown.
	FormatFullMarkdown OutputFormat = "full_markdown"
	// FormatMainMarkdown is the readable main content as Markdown.
	FormatMainMarkdown OutputFormat = "main_markdown"
	// FormatFullHTML is the rendered HTML as fetched.
	FormatFullHTML OutputFormat = "full_html"
	// FormatMainHTML is the readable main content as HTML.
	FormatMainHTML OutputFormat = "main_html"
)

// ParseOutputFormat converts a case-insensitive name into an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatFullMarkdown, FormatMainMarkdown, FormatFullHTML, FormatMainHTML:
		return f, nil
	}
	return "", Errorf(EINVALID, "unknown output format %q", s)
}

// ScrapeResult is what the crawler records for one fetched page.
//
// Link lists are sorted and hold canonical URLs. A page whose fetch failed
// still produces a result: Error is set and the content fields are empty.
type ScrapeResult struct {
	RequestedURL    string       `json:"requestedUrl"`
	URL             string       `json:"url"`
	Title           string       `json:"title"`
	ShortTitle      string       `json:"shortTitle"`
	Author          string       `json:"author"`
	Format          OutputFormat `json:"format"`
	Content         string       `json:"content"`
	ContentHash     string       `json:"contentHash"`
	Links           []string     `json:"links"`
	InternalLinks   []string     `json:"internalLinks"`
	PaginationLinks []string     `json:"paginationLinks"`
	Depth           int          `json:"depth"`
	Error           string       `json:"error,omitempty"`
}

// Degraded reports whether the page could not be fetched completely.
func (r *ScrapeResult) Degraded() bool {
	return r.Error != ""
}
