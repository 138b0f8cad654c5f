package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/fwojciec/searchcrawl"
	"github.com/fwojciec/searchcrawl/crawl"
	"github.com/fwojciec/searchcrawl/fs"
)

// fail reports err on stderr and returns it.
func fail(deps *Dependencies, err error) error {
	fmt.Fprintf(deps.Stderr, "error: %s\n", searchcrawl.ErrorMessage(err))
	return err
}

// finish delivers crawl output. Pages are written to --output when set,
// extracted fields, page text or payload go to stdout, and a summary goes to
// stderr.
// crawlErr is returned after partial output has been delivered.
func finish(deps *Dependencies, flags *CrawlFlags, extract *searchcrawl.ExtractRequest, payload any, pages []*searchcrawl.ScrapeResult, crawlErr error) error {
	var counter searchcrawl.TokenCounter
	if flags.Tokens {
		counter = deps.Tokens
	}
	stats := crawl.Summarize(deps.Ctx, pages, counter)
	fmt.Fprintf(deps.Stderr, "Crawled %s\n", stats)

	if flags.Output != "" {
		if err := writeFiles(deps, flags.Output, pages); err != nil {
			return fail(deps, err)
		}
		fmt.Fprintf(deps.Stderr, "Wrote %d pages to %s\n", stats.Pages-stats.Failed, flags.Output)
	}

	if crawlErr != nil {
		return fail(deps, crawlErr)
	}

	switch {
	case extract != nil:
		fields, err := deps.Fields.ExtractFields(deps.Ctx, extract, pages)
		if err != nil {
			return fail(deps, err)
		}
		return writeJSON(deps.Stdout, fields)
	case flags.Text:
		_, err := fmt.Fprintln(deps.Stdout, searchcrawl.FormatResults(pages))
		return err
	case flags.Output == "":
		return writeJSON(deps.Stdout, payload)
	}
	return nil
}

// writeFiles stages every page and replaces dir only when all writes succeed.
func writeFiles(deps *Dependencies, dir string, pages []*searchcrawl.ScrapeResult) error {
	w := fs.NewWriter(filepath.Dir(dir), filepath.Base(dir))
	if deps.Now != nil {
		w.Now = deps.Now
	}
	for _, p := range pages {
		if err := w.WriteResult(deps.Ctx, p); err != nil {
			_ = w.Abort()
			return err
		}
	}
	return w.Commit()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// progressPrinter reports each finished page on w.
func progressPrinter(w io.Writer) crawl.ProgressFunc {
	return func(e crawl.ProgressEvent) {
		switch e.Type {
		case crawl.ProgressCompleted:
			fmt.Fprintf(w, "[%d] %s (depth %d)\n", e.Completed, crawl.TruncateURL(e.URL, 80), e.Depth)
		case crawl.ProgressFailed:
			fmt.Fprintf(w, "[%d] %s failed: %v\n", e.Completed, crawl.TruncateURL(e.URL, 80), e.Error)
		}
	}
}
