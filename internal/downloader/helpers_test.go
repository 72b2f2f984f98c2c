package downloader_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/brogergvhs/noveld/internal/downloader"
	"github.com/brogergvhs/noveld/internal/providers/wap"
	"github.com/brogergvhs/noveld/internal/ui"
	"github.com/stretchr/testify/require"
)

const site = "https://m.example.com"

// fakeFetcher serves canned pages. Unknown URLs fail like an exhausted
// retry budget would.
type fakeFetcher struct {
	mu     sync.Mutex
	pages  map[string]string
	calls  map[string]int
	order  []string
	before func(url string)
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: map[string]int{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	if f.before != nil {
		f.before(url)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[url]++
	f.order = append(f.order, url)

	html, ok := f.pages[url]
	if !ok {
		return "", &downloader.FetchError{URL: url, Attempts: 1, Err: errors.New("HTTP 404")}
	}

	return html, nil
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[url]
}

func (f *fakeFetcher) countPrefix(prefix string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, u := range f.order {
		if strings.HasPrefix(u, prefix) {
			n++
		}
	}

	return n
}

func li(n int, href string) string {
	if href == "" {
		return fmt.Sprintf("<li>第%d章</li>", n)
	}
	return fmt.Sprintf(`<li><a href="%s">第%d章</a></li>`, href, n)
}

func indexPage(next string, items ...string) string {
	pager := `<a href="/xs1/">上一页</a>`
	if next != "" {
		pager += fmt.Sprintf(`<a href="%s">下一页</a>`, next)
	}

	return fmt.Sprintf(`<html><head><title>目录</title></head><body>
<ul class="chapter">%s</ul>
<div class="page">%s</div>
</body></html>`, strings.Join(items, ""), pager)
}

func contentPage(title, text, nextPage, nextChapter string) string {
	var nav strings.Builder
	nav.WriteString(`<a href="/xs1/list_1/">返回目录</a>`)
	if nextPage != "" {
		fmt.Fprintf(&nav, `<a href="%s">下一页</a>`, nextPage)
	}
	if nextChapter != "" {
		fmt.Fprintf(&nav, `<a href="%s">下一章</a>`, nextChapter)
	}

	return fmt.Sprintf(`<html><head><title>%s</title></head><body>
<div class="nr_title">%s</div>
<div class="nr_nr">%s</div>
</body></html>`, title, nav.String(), text)
}

func newDownloader(t *testing.T, f downloader.Fetcher, workers int) *downloader.Downloader {
	t.Helper()

	d, err := downloader.New(downloader.Options{
		Parser:  wap.New(),
		Fetcher: f,
		Workers: workers,
		Log:     ui.NewLoggerTo(io.Discard, true),
	})
	require.NoError(t, err)

	return d
}
