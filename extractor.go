package searchcrawl

import "strings"

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ShortTitle is Title without site-name decorations such as
	// "Article | Example Site".
	ShortTitle string

	// Author is the byline, when the page declares one.
	Author string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	Extract(html string) (*ExtractResult, error)
}

// titleDelimiters separate a page title from site-name decorations.
var titleDelimiters = []string{" | ", " - ", " – ", " — ", " :: ", " / "}

// ShortTitle strips site-name decorations from a page title, e.g.
// "How pagination works in practice | Example Blog" becomes
// "How pagination works in practice". A candidate part must have at least
// four words; titles that would end up shorter than 16 or longer than 149
// characters are returned unchanged.
func ShortTitle(title string) string {
	title = strings.TrimSpace(title)
	short := title
	picked := false
	for _, d := range titleDelimiters {
		if !strings.Contains(title, d) {
			continue
		}
		parts := strings.Split(title, d)
		if first := parts[0]; wordCount(first) >= 4 {
			short, picked = first, true
			break
		}
		if last := parts[len(parts)-1]; wordCount(last) >= 4 {
			short, picked = last, true
			break
		}
	}
	if !picked && strings.Contains(title, ": ") {
		parts := strings.Split(title, ": ")
		if last := parts[len(parts)-1]; wordCount(last) >= 4 {
			short = last
		} else {
			_, short, _ = strings.Cut(title, ": ")
		}
	}

	short = strings.TrimSpace(short)
	if n := len([]rune(short)); n <= 15 || n >= 150 {
		return title
	}
	return short
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
