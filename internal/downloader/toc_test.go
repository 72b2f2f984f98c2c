package downloader_test

import (
	"context"
	"testing"

	"github.com/brogergvhs/noveld/internal/downloader"
	"github.com/brogergvhs/noveld/internal/providers"
	"github.com/brogergvhs/noveld/internal/providers/wap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexEntries_FetchesLazily(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("/xs1/list_2/", li(1, "/xs1/1.html")),
		site + "/xs1/list_2/": indexPage("", li(2, "")),
	})

	for e, err := range downloader.IndexEntries(context.Background(), f, wap.New(), site+"/xs1/list_1/") {
		require.NoError(t, err)
		assert.Equal(t, 1, e.Number)
		break
	}

	assert.Equal(t, 1, f.countPrefix(site+"/xs1/list_"))
}

func TestIndexEntries_AllPages(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("/xs1/list_2/", li(1, "/xs1/1.html")),
		site + "/xs1/list_2/": indexPage("", li(2, ""), li(3, "/xs1/3.html")),
	})

	var got []providers.IndexEntry
	for e, err := range downloader.IndexEntries(context.Background(), f, wap.New(), site+"/xs1/list_1/") {
		require.NoError(t, err)
		got = append(got, e)
	}

	require.Len(t, got, 3)
	assert.Equal(t, site+"/xs1/1.html", got[0].URL)
	assert.True(t, got[1].Escaped())
	assert.Equal(t, 3, got[2].Number)
}

func TestIndexEntries_StopsOnError(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		site + "/xs1/list_1/": indexPage("/xs1/list_1/", li(1, "/xs1/1.html")),
	})

	var errs []error
	n := 0
	for _, err := range downloader.IndexEntries(context.Background(), f, wap.New(), site+"/xs1/list_1/") {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		n++
	}

	assert.Equal(t, 1, n)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], providers.ErrParse)
}
