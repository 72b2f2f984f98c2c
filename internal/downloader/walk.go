package downloader

import (
	"github.com/brogergvhs/noveld/internal/providers"
)

// tocWalk is the pagination state of the chapter index.
type tocWalk struct {
	next    string
	visited map[string]bool
	pages   int
	highest int
}

func newTOCWalk(start string) *tocWalk {
	return &tocWalk{next: start, visited: map[string]bool{start: true}}
}

// step records one index page. It reports whether another page follows;
// when it does, w.next holds its URL.
func (w *tocWalk) step(page providers.IndexPage) (bool, error) {
	current := w.next
	w.pages++

	for _, e := range page.Entries {
		w.highest = max(w.highest, e.Number)
	}

	if page.NextURL == "" {
		return false, nil
	}
	if w.visited[page.NextURL] {
		return false, &providers.ParseError{URL: current, What: "index pagination loops back to " + page.NextURL}
	}

	w.visited[page.NextURL] = true
	w.next = page.NextURL

	return true, nil
}

type walkOutcome int

const (
	// walkMore: another page of the same chapter follows at w.url.
	walkMore walkOutcome = iota
	// walkChapterDone: the page linked to the next chapter.
	walkChapterDone
	// walkEnded: the page had neither link; only valid for the last chapter.
	walkEnded
)

// contentWalk is the page-by-page walk through one chapter.
type contentWalk struct {
	number  int
	url     string
	visited map[string]bool
	pages   int
}

func newContentWalk(number int, start string) *contentWalk {
	return &contentWalk{number: number, url: start, visited: map[string]bool{start: true}}
}

func (w *contentWalk) step(page providers.ContentPage) (walkOutcome, error) {
	w.pages++

	switch {
	case page.NextPageURL != "":
		if w.visited[page.NextPageURL] {
			return 0, &providers.ParseError{URL: w.url, What: "chapter pages loop back to " + page.NextPageURL}
		}
		w.visited[page.NextPageURL] = true
		w.url = page.NextPageURL

		return walkMore, nil
	case page.NextChapterURL != "":
		return walkChapterDone, nil
	default:
		return walkEnded, nil
	}
}
