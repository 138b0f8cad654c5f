// Package fs writes crawled pages to a directory tree.
package fs

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/fwojciec/searchcrawl"
	"gopkg.in/yaml.v3"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// URLToPath converts a page URL to a relative file path rooted at the host.
// The query string becomes a filename suffix so pages of a series do not
// collide, and ext is appended.
//
// Example: https://example.com/docs/list?page=2 → example.com/docs/list_page-2.md
func URLToPath(rawURL, ext string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", searchcrawl.Errorf(searchcrawl.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	if u.Host == "" {
		return "", searchcrawl.Errorf(searchcrawl.EINVALID, "URL %q has no host", rawURL)
	}

	p := u.Path
	if p == "" || strings.HasSuffix(p, "/") {
		p += "index"
	}
	p = path.Clean("/" + p)

	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range segments {
		segments[i] = sanitize(s)
	}
	if u.RawQuery != "" {
		last := len(segments) - 1
		segments[last] += "_" + sanitize(strings.ReplaceAll(u.RawQuery, "=", "-"))
	}

	return filepath.Join(append([]string{sanitize(u.Host)}, segments...)...) + ext, nil
}

func sanitize(s string) string {
	s = strings.Trim(unsafeChars.ReplaceAllString(s, "_"), "_")
	if s == "" || s == "." || s == ".." {
		return "_"
	}
	return s
}

// frontmatter is the YAML header written above each page.
type frontmatter struct {
	Source      string `yaml:"source"`
	Requested   string `yaml:"requested,omitempty"`
	Title       string `yaml:"title"`
	Author      string `yaml:"author,omitempty"`
	Depth       int    `yaml:"depth"`
	ContentHash string `yaml:"content_hash"`
	Crawled     string `yaml:"crawled"`
}

// FormatResult formats a page with YAML frontmatter.
func FormatResult(result *searchcrawl.ScrapeResult, crawled time.Time) (string, error) {
	fm := frontmatter{
		Source:      result.URL,
		Title:       result.Title,
		Author:      result.Author,
		Depth:       result.Depth,
		ContentHash: result.ContentHash,
		Crawled:     crawled.Format("2006-01-02"),
	}
	if result.RequestedURL != result.URL {
		fm.Requested = result.RequestedURL
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(result.Content)
	return b.String(), nil
}

// Ensure Writer implements searchcrawl.ResultWriter at compile time.
var _ searchcrawl.ResultWriter = (*Writer)(nil)

// Writer writes pages into a staging directory next to the output directory.
// Commit replaces the output directory with the staged tree; Abort discards it.
// Pages whose fetch failed are skipped.
type Writer struct {
	baseDir string
	name    string

	// Now returns the crawl date written to frontmatter.
	Now func() time.Time
}

// NewWriter creates a Writer for baseDir/name. Pages are staged in
// baseDir/name.tmp until Commit.
func NewWriter(baseDir, name string) *Writer {
	return &Writer{baseDir: baseDir, name: name, Now: time.Now}
}

func (w *Writer) tempDir() string {
	return filepath.Join(w.baseDir, w.name+".tmp")
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return filepath.Join(w.baseDir, w.name)
}

// WriteResult stages one page as a file.
func (w *Writer) WriteResult(ctx context.Context, result *searchcrawl.ScrapeResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if result.Degraded() {
		return nil
	}

	relPath, err := URLToPath(result.URL, extension(result.Format))
	if err != nil {
		return err
	}
	fullPath := filepath.Join(w.tempDir(), relPath)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return err
	}

	content, err := FormatResult(result, w.Now())
	if err != nil {
		return err
	}
	return os.WriteFile(fullPath, []byte(content), 0644)
}

func extension(format searchcrawl.OutputFormat) string {
	switch format {
	case searchcrawl.FormatFullHTML, searchcrawl.FormatMainHTML:
		return ".html"
	}
	return ".md"
}

// Commit replaces the output directory with the staged pages. Committing
// without any staged page leaves an empty output directory.
func (w *Writer) Commit() error {
	if err := os.MkdirAll(w.tempDir(), 0755); err != nil {
		return err
	}
	if err := os.RemoveAll(w.Dir()); err != nil {
		return err
	}
	return os.Rename(w.tempDir(), w.Dir())
}

// Abort discards the staged pages and leaves the output directory untouched.
func (w *Writer) Abort() error {
	return os.RemoveAll(w.tempDir())
}
