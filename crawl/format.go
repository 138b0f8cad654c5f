package crawl

import (
	"context"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/searchcrawl"
)

// ComputeHash returns the hex xxhash of content.
func ComputeHash(content string) string {
	return fmt.Sprintf("%x", xxhash.Sum64String(content))
}

// Stats summarizes the pages returned by one or more crawls.
type Stats struct {
	Pages  int
	Failed int
	Bytes  int
	Tokens int
}

// Summarize totals results. Tokens are counted only when counter is non-nil;
// pages the counter rejects contribute no tokens.
func Summarize(ctx context.Context, results []*searchcrawl.ScrapeResult, counter searchcrawl.TokenCounter) Stats {
	var s Stats
	for _, r := range results {
		if r == nil {
			continue
		}
		s.Pages++
		if r.Degraded() {
			s.Failed++
		}
		s.Bytes += len(r.Content)
		if counter != nil && r.Content != "" {
			if n, err := counter.CountTokens(ctx, r.Content); err == nil {
				s.Tokens += n
			}
		}
	}
	return s
}

// String renders s for a one-line status report.
func (s Stats) String() string {
	out := fmt.Sprintf("%d pages (%d failed), %s", s.Pages, s.Failed, FormatBytes(s.Bytes))
	if s.Tokens > 0 {
		out += ", " + FormatTokens(s.Tokens)
	}
	return out
}

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatTokens formats token count in human-readable form.
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}
