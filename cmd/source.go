package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/brogergvhs/noveld/internal/config"
	"github.com/brogergvhs/noveld/internal/downloader"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/brogergvhs/noveld/internal/util"

	"github.com/spf13/cobra"
)

var (
	// source
	flagURL   string
	flagIndex string

	// network
	flagAttempts   uint
	flagTimeout    time.Duration
	flagRateLimit  float64
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
	flagCloudflare bool
)

func addSourceFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagURL, "url", "", "book page URL, e.g. https://m.example.com/xs123/")
	c.Flags().StringVar(&flagIndex, "index", "", "chapter index URL; skips the book page")

	c.Flags().UintVar(&flagAttempts, "attempts", 0, "fetch attempts per page before giving up")
	c.Flags().DurationVar(&flagTimeout, "timeout", 0, "per-request timeout")
	c.Flags().Float64Var(&flagRateLimit, "rate-limit", 0, "max requests per second (0 = unlimited)")
	c.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	c.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	c.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")
	c.Flags().BoolVar(&flagCloudflare, "cloudflare-bypass", false, "route requests through the Cloudflare bypass transport")
}

func sourceOptions() config.Options {
	return config.Options{
		IgnoreConfig:     flagIgnoreConfig,
		Debug:            flagDebug,
		Attempts:         flagAttempts,
		Timeout:          flagTimeout,
		RateLimit:        flagRateLimit,
		DefaultURL:       flagURL,
		Cookie:           flagCookie,
		CookieFile:       flagCookieFile,
		UserAgent:        flagUserAgent,
		CloudflareBypass: flagCloudflare,
	}
}

func newFetcher(cfg *config.Config, log *ui.Logger, stats *ui.Stats) (*downloader.PageFetcher, error) {
	client, err := util.NewHTTPClient(util.HTTPClientOptions{
		Timeout:          cfg.Timeout,
		UserAgent:        util.PickUserAgent(cfg.UserAgent),
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		CloudflareBypass: cfg.CloudflareBypass,
		DebugLogger:      log,
	})
	if err != nil {
		return nil, err
	}

	return downloader.NewPageFetcher(client, downloader.FetchOptions{
		Attempts:      cfg.Attempts,
		RetryDelay:    cfg.RetryDelay,
		MaxRetryDelay: cfg.MaxRetryDelay,
		RateLimit:     cfg.RateLimit,
	}, log, stats), nil
}

// resolveBook finds the chapter index. An explicit index URL is used as is;
// otherwise the book page is fetched for its title and index link.
func resolveBook(ctx context.Context, f downloader.Fetcher, p providers.Parser, bookURL, indexURL string) (providers.BookInfo, error) {
	if indexURL != "" {
		return providers.BookInfo{IndexURL: indexURL}, nil
	}
	if bookURL == "" {
		return providers.BookInfo{}, fmt.Errorf("missing --url/--index and no default_url in config")
	}

	html, err := f.Fetch(ctx, bookURL)
	if err != nil {
		return providers.BookInfo{}, err
	}

	return p.ParseBook(bookURL, html)
}

// listIndex prints the chapter index as it is walked.
func listIndex(ctx context.Context, f downloader.Fetcher, p providers.Parser, indexURL string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NO.\tTITLE\tURL")

	n := 0
	for e, err := range downloader.IndexEntries(ctx, f, p, indexURL) {
		if err != nil {
			_ = w.Flush()
			return err
		}

		link := e.URL
		if e.Escaped() {
			link = "(no link, follows previous chapter)"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\n", e.Number, e.Title, link)
		n++
	}

	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d index entries.\n", n)

	return nil
}
