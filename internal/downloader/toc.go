package downloader

import (
	"context"
	"iter"

	"github.com/brogergvhs/noveld/internal/providers"
)

// IndexEntries walks the paginated chapter index lazily, fetching the next
// page only when the caller has consumed the previous one. Each range over
// the sequence starts again from startURL. A fetch or parse error is
// yielded once and ends the sequence.
func IndexEntries(ctx context.Context, f Fetcher, p providers.Parser, startURL string) iter.Seq2[providers.IndexEntry, error] {
	return func(yield func(providers.IndexEntry, error) bool) {
		w := newTOCWalk(startURL)

		for {
			html, err := f.Fetch(ctx, w.next)
			if err != nil {
				yield(providers.IndexEntry{}, err)
				return
			}

			page, err := p.ParseIndex(w.next, html)
			if err != nil {
				yield(providers.IndexEntry{}, err)
				return
			}

			for _, e := range page.Entries {
				if !yield(e, nil) {
					return
				}
			}

			more, err := w.step(page)
			if err != nil {
				yield(providers.IndexEntry{}, err)
				return
			}
			if !more {
				return
			}
		}
	}
}
