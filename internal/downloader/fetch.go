package downloader

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/brogergvhs/noveld/internal/util"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Fetcher retrieves the text of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

type FetchOptions struct {
	Attempts      uint
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
	// RateLimit caps requests per second across the run; 0 disables it.
	RateLimit float64
}

// PageFetcher is the HTTP Fetcher. Bodies are decoded to UTF-8 from the
// charset the server or the document declares.
type PageFetcher struct {
	client  *http.Client
	opts    FetchOptions
	limiter *rate.Limiter
	log     *ui.Logger
	stats   *ui.Stats
}

func NewPageFetcher(c *http.Client, opts FetchOptions, log *ui.Logger, stats *ui.Stats) *PageFetcher {
	if opts.Attempts == 0 {
		opts.Attempts = 1
	}

	f := &PageFetcher{
		client: c,
		opts:   opts,
		log:    log,
		stats:  stats,
	}
	if opts.RateLimit > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return f
}

func (f *PageFetcher) Fetch(ctx context.Context, target string) (string, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	policy := util.RetryPolicy{
		Attempts: f.opts.Attempts,
		Delay:    f.opts.RetryDelay,
		MaxDelay: f.opts.MaxRetryDelay,
		OnRetry: func(n uint, err error) {
			if f.log != nil {
				f.log.Debugf("retry %d/%d %s: %v\n", n+1, f.opts.Attempts, target, err)
			}
		},
	}

	body, err := util.DoWithRetry(ctx, f.client, target, policy, f.readBody)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", &FetchError{URL: target, Attempts: f.opts.Attempts, Err: err}
	}

	return body, nil
}

func (f *PageFetcher) readBody(resp *http.Response) (string, error) {
	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode body: %w", err)
	}

	var buf bytes.Buffer
	var last int64
	_, err = copyWithProgress(&buf, r, func(done int64) {
		if f.stats != nil {
			f.stats.TotalBytes.Add(done - last)
		}
		last = done
	})
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}
