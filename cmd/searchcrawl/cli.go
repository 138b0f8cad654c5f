package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/fwojciec/searchcrawl"
	"github.com/fwojciec/searchcrawl/crawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	Crawler  *crawl.Crawler
	Searcher searchcrawl.Searcher
	Sitemaps searchcrawl.SitemapService
	Fields   searchcrawl.FieldExtractor
	Tokens   searchcrawl.TokenCounter

	// Now stamps files written with --output. Nil means time.Now.
	Now func() time.Time
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Globals

	Crawl       CrawlCmd       `cmd:"" help:"Crawl a site outward from a seed URL"`
	CrawlMany   CrawlManyCmd   `cmd:"" name:"crawl-many" help:"Crawl several seeds, optionally discovered from a sitemap"`
	Search      SearchCmd      `cmd:"" help:"Query the metasearch engine"`
	SearchCrawl SearchCrawlCmd `cmd:"" name:"search-crawl" help:"Search, then crawl every result"`
}

// Globals are flags shared by every command.
type Globals struct {
	Fetcher      string        `enum:"rod,http" default:"rod" env:"SEARCHCRAWL_FETCHER" help:"Page fetcher (${enum})"`
	FetchTimeout time.Duration `default:"5s" help:"Per-page fetch timeout"`
	Stealth      bool          `help:"Apply browser fingerprint evasions (rod fetcher only)"`
	UserAgent    string        `name:"user-agent" env:"SEARCHCRAWL_USER_AGENT" help:"User-Agent header (http fetcher only)"`
	Extractor    string        `enum:"readability,trafilatura" default:"readability" help:"Main content extractor (${enum})"`

	Cache      string `enum:"none,redis,sqlite" default:"none" env:"SEARCHCRAWL_CACHE" help:"Cache backend (${enum})"`
	RedisURL   string `default:"redis://localhost:6379/0" env:"SEARCHCRAWL_REDIS_URL" help:"Redis URL for --cache=redis"`
	SQLitePath string `name:"sqlite-path" env:"SEARCHCRAWL_SQLITE_PATH" help:"Cache database for --cache=sqlite (default ~/.searchcrawl/cache.db)"`

	SearxngURL   string `name:"searxng-url" default:"http://localhost:8080" env:"SEARXNG_URL" help:"SearXNG base URL"`
	GeminiAPIKey string `name:"gemini-api-key" env:"GEMINI_API_KEY" help:"Gemini API key for --extract"`
	GeminiModel  string `name:"gemini-model" env:"GEMINI_MODEL" help:"Gemini model for --extract"`

	Progress bool   `help:"Print crawl progress to stderr"`
	LogLevel string `enum:"debug,info,warn,error" default:"warn" env:"SEARCHCRAWL_LOG_LEVEL" help:"Log level (${enum})"`
}

// CrawlFlags mirror searchcrawl.CrawlConfig plus output options.
type CrawlFlags struct {
	Scope       string `enum:"pagination,internal,all" default:"pagination" help:"Links to follow (${enum})"`
	MaxDepth    int    `default:"1" help:"Maximum link depth; negative for unlimited"`
	MaxPages    int    `default:"-1" help:"Maximum pages per seed; negative for unlimited"`
	Concurrency int    `short:"c" default:"2" help:"Concurrent fetch limit per seed"`
	Format      string `enum:"main_markdown,full_markdown,main_html,full_html" default:"main_markdown" help:"Content format (${enum})"`

	NoCacheRead  bool          `help:"Do not read cached pages"`
	NoCacheWrite bool          `help:"Do not write fetched pages to the cache"`
	CacheTTL     time.Duration `name:"cache-ttl" default:"24h" help:"Lifetime of cached entries"`

	Output string `short:"o" type:"path" help:"Write pages as files under this directory instead of JSON to stdout"`
	Text   bool   `help:"Print page contents as one text block instead of JSON"`
	Tokens bool   `help:"Report approximate token count of crawled content"`

	Extract     string `help:"Instruction for structured extraction over the crawled pages"`
	Schema      string `help:"JSON schema of the extracted object (inline JSON)"`
	ExtractWith string `name:"extract-model" help:"Model override for this extraction"`
}

// Config converts the flags into a validated CrawlConfig.
func (f *CrawlFlags) Config() (searchcrawl.CrawlConfig, error) {
	cfg := searchcrawl.DefaultCrawlConfig()

	scope, err := searchcrawl.ParseCrawlScope(f.Scope)
	if err != nil {
		return cfg, err
	}
	format, err := searchcrawl.ParseOutputFormat(f.Format)
	if err != nil {
		return cfg, err
	}

	cfg.Scope = scope
	cfg.Format = format
	cfg.Concurrency = f.Concurrency
	cfg.MaxDepth = nil
	if f.MaxDepth >= 0 {
		cfg.MaxDepth = searchcrawl.Ptr(f.MaxDepth)
	}
	if f.MaxPages >= 0 {
		cfg.MaxPages = searchcrawl.Ptr(f.MaxPages)
	}
	cfg.Cache = searchcrawl.CachePolicy{
		Readable: !f.NoCacheRead,
		Writable: !f.NoCacheWrite,
		TTL:      f.CacheTTL,
	}
	return cfg, cfg.Validate()
}

// ExtractRequest returns the extraction request, or nil when --extract is
// not set.
func (f *CrawlFlags) ExtractRequest() (*searchcrawl.ExtractRequest, error) {
	if f.Extract == "" {
		if f.Schema != "" {
			return nil, searchcrawl.Errorf(searchcrawl.EINVALID, "--schema requires --extract")
		}
		return nil, nil
	}

	var schema map[string]any
	if err := json.Unmarshal([]byte(f.Schema), &schema); err != nil {
		return nil, searchcrawl.Errorf(searchcrawl.EINVALID, "--schema must be a JSON object: %v", err)
	}

	req := &searchcrawl.ExtractRequest{
		Model:       f.ExtractWith,
		Instruction: f.Extract,
		JSONSchema:  schema,
	}
	return req, req.Validate()
}

// SearchFlags mirror searchcrawl.SearchRequest.
type SearchFlags struct {
	Engines    []string `sep:"," help:"Engines to query; overrides --preset"`
	Preset     string   `enum:"general,images" default:"general" help:"Engine preset (${enum})"`
	Language   string   `default:"en" help:"Result language"`
	Page       int      `default:"1" help:"Result page"`
	TimeRange  string   `help:"Restrict results to the last day, month or year"`
	MaxResults int      `short:"n" default:"10" help:"Maximum results; 0 for all"`
}

// Request builds a validated SearchRequest for query.
func (f *SearchFlags) Request(query string, cache searchcrawl.CachePolicy) (*searchcrawl.SearchRequest, error) {
	req := searchcrawl.NewSearchRequest(query)
	req.Engines = f.Engines
	req.Preset = searchcrawl.EnginePreset(f.Preset)
	req.Language = f.Language
	req.Page = f.Page
	req.TimeRange = f.TimeRange
	req.MaxResults = f.MaxResults
	req.Cache = cache
	return req, req.Validate()
}

// CrawlCmd is the "crawl" subcommand.
type CrawlCmd struct {
	URL        string `arg:"" help:"Seed URL"`
	CrawlFlags `embed:""`
}

// CrawlManyCmd is the "crawl-many" subcommand.
type CrawlManyCmd struct {
	URLs       []string `arg:"" optional:"" name:"url" help:"Seed URLs"`
	Sitemap    string   `help:"Discover seeds from this site's sitemap"`
	Include    []string `short:"I" help:"Keep sitemap URLs matching this regex (repeatable)"`
	Exclude    []string `short:"X" help:"Drop sitemap URLs matching this regex (repeatable)"`
	CrawlFlags `embed:""`
}

// SearchCmd is the "search" subcommand.
type SearchCmd struct {
	Query       string `arg:"" help:"Search query"`
	SearchFlags `embed:""`
	NoCache     bool `help:"Bypass the search cache"`
}

// SearchCrawlCmd is the "search-crawl" subcommand.
type SearchCrawlCmd struct {
	Query       string `arg:"" help:"Search query"`
	SearchFlags `embed:""`
	CrawlFlags  `embed:""`
}

// commandName returns the first word of a Kong command path such as
// "crawl <url>".
func commandName(path string) string {
	name, _, _ := strings.Cut(path, " ")
	return name
}
