package providers

import (
	"errors"
	"fmt"
)

// ErrParse marks a page whose expected structure could not be found.
var ErrParse = errors.New("parse failed")

type ParseError struct {
	URL  string
	What string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrParse, e.URL, e.What)
}

func (e *ParseError) Unwrap() error { return ErrParse }

// IndexEntry is one item of the chapter index. URL is empty when the entry
// carries no resolvable content link.
type IndexEntry struct {
	Number int
	Title  string
	URL    string
}

func (e IndexEntry) Escaped() bool {
	return e.URL == ""
}

type IndexPage struct {
	Entries []IndexEntry
	// Problems holds entries that were present but unusable (e.g. no number).
	Problems []error
	NextURL  string
}

type ContentPage struct {
	Text           string
	Title          string
	NextPageURL    string
	NextChapterURL string
}

type BookInfo struct {
	Title    string
	IndexURL string
}

// Parser extracts structure from raw page text. Implementations are bound to
// one site layout.
type Parser interface {
	ParseBook(pageURL, html string) (BookInfo, error)
	ParseIndex(pageURL, html string) (IndexPage, error)
	ParseContent(pageURL, html string) (ContentPage, error)
}
