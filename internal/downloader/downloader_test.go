package downloader_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brogergvhs/noveld/internal/downloader"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/providers/wap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runBook(t *testing.T, f *fakeFetcher, workers int) (*downloader.Result, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return newDownloader(t, f, workers).Run(ctx, site+"/xs1/list_1/")
}

func TestRun_EscapeChapterBorrowsPreviousLink(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("", li(1, "/xs1/1.html"), li(2, "")),
		site + "/xs1/1.html":  contentPage("Ch1-书名", "page1a", "", "/xs1/2.html"),
		site + "/xs1/2.html":  contentPage("Ch2-书名", "page1b", "", ""),
	})

	res, err := runBook(t, f, 4)
	require.NoError(t, err)

	assert.Equal(t, "Ch1\npage1a\n\nCh2\npage1b\n\n", res.Document)
	assert.Equal(t, 2, res.Chapters)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, 1, f.count(site+"/xs1/2.html"))
}

func TestRun_OrderIndependentOfCompletion(t *testing.T) {
	ch3Fetched := make(chan struct{})

	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/":  indexPage("", li(1, "/xs1/1.html"), li(2, "/xs1/2.html"), li(3, "/xs1/3.html")),
		site + "/xs1/1.html":   contentPage("", "1a", "/xs1/1_2.html", ""),
		site + "/xs1/1_2.html": contentPage("", "1b", "", "/xs1/2.html"),
		site + "/xs1/2.html":   contentPage("", "2a", "", "/xs1/3.html"),
		site + "/xs1/3.html":   contentPage("", "3a", "", ""),
	})
	f.before = func(url string) {
		switch url {
		case site + "/xs1/3.html":
			close(ch3Fetched)
		case site + "/xs1/1.html":
			<-ch3Fetched
		}
	}

	res, err := runBook(t, f, 4)
	require.NoError(t, err)

	assert.Equal(t, "第1章\n1a\n\n1b\n\n第2章\n2a\n\n第3章\n3a\n\n", res.Document)
	assert.Equal(t, 4, res.Pages)
}

func TestRun_IndexPaginationStopsAfterLastPage(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("/xs1/list_2/", li(3, "/xs1/3.html"), li(2, "/xs1/2.html")),
		site + "/xs1/list_2/": indexPage("/xs1/list_3/"),
		site + "/xs1/list_3/": indexPage("", li(1, "/xs1/1.html")),
		site + "/xs1/1.html":  contentPage("", "one", "", "/xs1/2.html"),
		site + "/xs1/2.html":  contentPage("", "two", "", "/xs1/3.html"),
		site + "/xs1/3.html":  contentPage("", "three", "", ""),
	})

	res, err := runBook(t, f, 2)
	require.NoError(t, err)

	assert.Equal(t, 3, f.countPrefix(site+"/xs1/list_"))
	assert.Equal(t, "第1章\none\n\n第2章\ntwo\n\n第3章\nthree\n\n", res.Document)
}

func TestRun_LastChapterSeenBeforeIndexEnds(t *testing.T) {
	lastFetched := make(chan struct{})

	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("/xs1/list_2/", li(1, "/xs1/1.html"), li(2, "/xs1/2.html")),
		site + "/xs1/list_2/": indexPage(""),
		site + "/xs1/1.html":  contentPage("", "one", "", "/xs1/2.html"),
		site + "/xs1/2.html":  contentPage("", "two", "", ""),
	})
	f.before = func(url string) {
		switch url {
		case site + "/xs1/2.html":
			defer close(lastFetched)
		case site + "/xs1/list_2/":
			<-lastFetched
			time.Sleep(20 * time.Millisecond)
		}
	}

	res, err := runBook(t, f, 4)
	require.NoError(t, err)
	assert.Equal(t, "第1章\none\n\n第2章\ntwo\n\n", res.Document)
}

func TestRun_EscapeChainResolvesInOrder(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("", li(1, "/xs1/1.html"), li(2, ""), li(3, ""), li(4, "/xs1/4.html")),
		site + "/xs1/1.html":  contentPage("", "one", "", "/xs1/2.html"),
		site + "/xs1/2.html":  contentPage("", "two", "", "/xs1/3.html"),
		site + "/xs1/3.html":  contentPage("", "three", "", "/xs1/4.html"),
		site + "/xs1/4.html":  contentPage("", "four", "", ""),
	})

	res, err := runBook(t, f, 3)
	require.NoError(t, err)

	assert.Equal(t, "第1章\none\n\n第2章\ntwo\n\n第3章\nthree\n\n第4章\nfour\n\n", res.Document)
	assert.Equal(t, 1, f.count(site+"/xs1/2.html"))
	assert.Equal(t, 1, f.count(site+"/xs1/3.html"))
	assert.Equal(t, 1, f.count(site+"/xs1/4.html"))
}

func TestRun_UnresolvableEscapeIsReported(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("", li(1, ""), li(2, "/xs1/2.html")),
		site + "/xs1/2.html":  contentPage("", "two", "", ""),
	})

	res, err := runBook(t, f, 2)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, downloader.ErrIncomplete)

	var rerr *downloader.RunError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 2, rerr.Expected)
	assert.Equal(t, []int{1}, rerr.Missing)
	require.Len(t, rerr.Errors, 1)

	var cerr *downloader.ChapterError
	require.True(t, errors.As(rerr.Errors[0], &cerr))
	assert.Equal(t, 1, cerr.Number)
}

func TestRun_FetchFailureLeavesNoDocument(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("", li(1, "/xs1/1.html"), li(2, "/xs1/2.html")),
		site + "/xs1/1.html":  contentPage("", "one", "", "/xs1/2.html"),
	})

	res, err := runBook(t, f, 2)
	assert.Nil(t, res)

	var rerr *downloader.RunError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, []int{2}, rerr.Missing)

	var ferr *downloader.FetchError
	require.Len(t, rerr.Errors, 1)
	assert.True(t, errors.As(rerr.Errors[0], &ferr))
	assert.Equal(t, site+"/xs1/2.html", ferr.URL)
}

func TestRun_MissingLinksBeforeLastChapterIsParseError(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("", li(1, "/xs1/1.html"), li(2, "/xs1/2.html")),
		site + "/xs1/1.html":  contentPage("", "one", "", ""),
		site + "/xs1/2.html":  contentPage("", "two", "", ""),
	})

	_, err := runBook(t, f, 2)

	var rerr *downloader.RunError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, []int{1}, rerr.Missing)
	require.Len(t, rerr.Errors, 1)
	assert.ErrorIs(t, rerr.Errors[0], providers.ErrParse)
}

func TestRun_BrokenContentPageIsParseError(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("", li(1, "/xs1/1.html")),
		site + "/xs1/1.html":  `<html><body>503 maintenance</body></html>`,
	})

	_, err := runBook(t, f, 1)

	var rerr *downloader.RunError
	require.True(t, errors.As(err, &rerr))
	require.Len(t, rerr.Errors, 1)
	assert.ErrorIs(t, rerr.Errors[0], providers.ErrParse)
}

func TestRun_IndexGapIsReported(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("", li(1, "/xs1/1.html"), li(3, "/xs1/3.html")),
		site + "/xs1/1.html":  contentPage("", "one", "", "/xs1/2.html"),
		site + "/xs1/3.html":  contentPage("", "three", "", ""),
	})

	_, err := runBook(t, f, 2)

	var rerr *downloader.RunError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, 3, rerr.Expected)
	assert.Equal(t, []int{2}, rerr.Missing)
}

func TestRun_IndexLoopIsReported(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("/xs1/list_1/", li(1, "/xs1/1.html")),
		site + "/xs1/1.html":  contentPage("", "one", "", ""),
	})

	_, err := runBook(t, f, 1)

	var rerr *downloader.RunError
	require.True(t, errors.As(err, &rerr))
	assert.Zero(t, rerr.Expected)
	assert.Equal(t, 1, f.count(site+"/xs1/list_1/"))
}

func TestRun_WarningsDoNotBlockCompletion(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("", li(1, "/xs1/1.html"), "<li>序章</li>", li(1, "/xs1/1b.html")),
		site + "/xs1/1.html":  contentPage("", "one", "", ""),
	})

	res, err := runBook(t, f, 1)
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 2)
	assert.Zero(t, f.count(site+"/xs1/1b.html"))
}

type panicFetcher struct{}

func (panicFetcher) Fetch(context.Context, string) (string, error) {
	panic("boom")
}

func TestRun_DefectIsFatal(t *testing.T) {
	d, err := downloader.New(downloader.Options{Parser: wap.New(), Fetcher: panicFetcher{}})
	require.NoError(t, err)

	res, err := d.Run(context.Background(), site+"/xs1/list_1/")
	assert.Nil(t, res)
	assert.True(t, downloader.IsDefect(err))
	assert.NotErrorIs(t, err, downloader.ErrIncomplete)
}

func TestRun_Cancelled(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("", li(1, "/xs1/1.html")),
	})
	ctx, cancel := context.WithCancel(context.Background())
	f.before = func(string) { cancel() }

	_, err := newDownloader(t, f, 1).Run(ctx, site+"/xs1/list_1/")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := downloader.New(downloader.Options{Parser: wap.New()})
	assert.Error(t, err)
}
