package searchcrawl

import "strings"

// FormatResults renders crawled pages as one text block for display or LLM
// context. Each page gets a heading from its title, falling back to its URL.
// Pages without content are skipped.
func FormatResults(results []*ScrapeResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if r == nil || r.Content == "" {
			continue
		}
		header := r.Title
		if header == "" {
			header = r.URL
		}
		parts = append(parts, "## Page: "+header+"\n"+r.Content)
	}
	return strings.Join(parts, "\n\n")
}
