package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/searchcrawl"
	"github.com/fwojciec/searchcrawl/crawl"
	"github.com/fwojciec/searchcrawl/gemini"
	"github.com/fwojciec/searchcrawl/goquery"
	"github.com/fwojciec/searchcrawl/htmltomarkdown"
	schttp "github.com/fwojciec/searchcrawl/http"
	"github.com/fwojciec/searchcrawl/readability"
	"github.com/fwojciec/searchcrawl/redis"
	"github.com/fwojciec/searchcrawl/rod"
	scslog "github.com/fwojciec/searchcrawl/slog"
	"github.com/fwojciec/searchcrawl/sqlite"
	"github.com/fwojciec/searchcrawl/trafilatura"
	"google.golang.org/genai"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// closers are released in reverse order by Close.
	closers []io.Closer
}

// NewMain returns a new instance of Main.
func NewMain() *Main {
	return &Main{}
}

// Close releases the browser, cache connections and other resources opened
// by Run.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("searchcrawl"),
		kong.Description("Search the web and crawl paginated sites into clean content"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'searchcrawl --help' to see available commands")
	}
	if args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	defer m.Close()
	deps, err := m.wire(ctx, cli, commandName(kongCtx.Command()), stdout, stderr)
	if err != nil {
		return err
	}

	return kongCtx.Run(deps)
}

// wire builds the dependencies a command needs from the global flags.
func (m *Main) wire(ctx context.Context, cli *CLI, cmd string, stdout, stderr io.Writer) (*Dependencies, error) {
	logger := newLogger(stderr, cli.LogLevel)
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: logger,
	}

	cache, err := m.openCache(ctx, &cli.Globals, stderr)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		cache = scslog.NewLoggingCache(cache, logger)
	}

	if cmd == "search" || cmd == "search-crawl" {
		var searcher searchcrawl.Searcher = schttp.NewSearcher(cli.SearxngURL)
		if cache != nil {
			searcher = crawl.NewCachingSearcher(searcher, cache)
		}
		deps.Searcher = scslog.NewLoggingSearcher(searcher, logger)
	}
	if cmd == "search" {
		return deps, nil
	}

	var flags *CrawlFlags
	switch cmd {
	case "crawl":
		flags = &cli.Crawl.CrawlFlags
	case "crawl-many":
		flags = &cli.CrawlMany.CrawlFlags
		deps.Sitemaps = scslog.NewLoggingSitemapService(schttp.NewSitemapService(nil), logger)
	case "search-crawl":
		flags = &cli.SearchCrawl.CrawlFlags
	default:
		return nil, fmt.Errorf("unknown command %q", cmd)
	}

	fetcher, err := m.openFetcher(&cli.Globals, stderr)
	if err != nil {
		return nil, err
	}
	deps.Crawler = &crawl.Crawler{
		Fetcher:   crawl.NewRetryFetcher(scslog.NewLoggingFetcher(fetcher, logger), nil, logger),
		Extractor: newExtractor(cli.Extractor),
		Converter: htmltomarkdown.NewConverter(),
		Links:     goquery.NewLinkExtractor(),
		Cache:     cache,
	}
	if cli.Progress {
		deps.Crawler.Progress = progressPrinter(stderr)
	}

	if flags.Extract != "" && cli.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cli.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Check your GEMINI_API_KEY is valid")
			return nil, fmt.Errorf("failed to connect to Gemini API: %w", err)
		}
		deps.Fields = scslog.NewLoggingFieldExtractor(gemini.NewFieldExtractor(client, cli.GeminiModel), logger)
	}
	if flags.Extract != "" && cli.GeminiAPIKey == "" {
		fmt.Fprintln(stderr, "Hint: Set GEMINI_API_KEY. Get a key at https://aistudio.google.com/apikey")
	}

	if flags.Tokens {
		counter, err := gemini.NewTokenCounter(tokenizerModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create token counter: %w", err)
		}
		deps.Tokens = counter
	}

	return deps, nil
}

// tokenizerModel is used for token counting. The local tokenizer supports a
// fixed set of models, so it does not follow --gemini-model.
const tokenizerModel = gemini.DefaultModel

func (m *Main) openFetcher(g *Globals, stderr io.Writer) (searchcrawl.Fetcher, error) {
	if g.Fetcher == "http" {
		f := schttp.NewFetcher(schttp.WithTimeout(g.FetchTimeout), schttp.WithUserAgent(g.UserAgent))
		m.closers = append(m.closers, f)
		return f, nil
	}

	opts := []rod.FetcherOption{rod.WithFetchTimeout(g.FetchTimeout)}
	if g.Stealth {
		opts = append(opts, rod.WithStealth())
	}
	f, err := rod.NewFetcher(opts...)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed, or use --fetcher=http")
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	m.closers = append(m.closers, f)
	return f, nil
}

// openCache connects the selected cache backend. A backend that cannot be
// opened is an error rather than a silent fallback to no cache.
func (m *Main) openCache(ctx context.Context, g *Globals, stderr io.Writer) (searchcrawl.Cache, error) {
	switch g.Cache {
	case "redis":
		c, err := redis.Open(ctx, g.RedisURL)
		if err != nil {
			fmt.Fprintln(stderr, "Hint: Set SEARCHCRAWL_REDIS_URL or use --cache=none")
			return nil, fmt.Errorf("failed to open redis cache: %w", err)
		}
		m.closers = append(m.closers, c)
		return c, nil
	case "sqlite":
		path := g.SQLitePath
		if path == "" {
			path = defaultCachePath()
		}
		db := sqlite.NewDB(path)
		if err := db.Open(); err != nil {
			fmt.Fprintln(stderr, "Hint: Set SEARCHCRAWL_SQLITE_PATH to use a different cache path")
			return nil, fmt.Errorf("failed to open cache at %q: %w", path, err)
		}
		m.closers = append(m.closers, db)
		c := sqlite.NewCache(db)
		if _, err := c.Purge(ctx); err != nil {
			return nil, fmt.Errorf("failed to purge expired cache entries: %w", err)
		}
		return c, nil
	}
	return nil, nil
}

func newExtractor(name string) searchcrawl.Extractor {
	if name == "trafilatura" {
		return trafilatura.NewExtractor()
	}
	return readability.NewExtractor()
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	_ = l.UnmarshalText([]byte(level))
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "searchcrawl.db"
	}
	dir := filepath.Join(home, ".searchcrawl")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "cache.db")
}
