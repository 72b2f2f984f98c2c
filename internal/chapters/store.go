package chapters

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrInvalidNumber   = errors.New("invalid chapter number")
	ErrUnknownChapter  = errors.New("unknown chapter")
	ErrChapterComplete = errors.New("chapter already complete")
	ErrMissingTitle    = errors.New("chapter title is required")
	ErrChaptersMissing = errors.New("chapters missing")
)

// Store maps chapter numbers to records and tracks how many have completed.
// It is not safe for concurrent use; one goroutine owns it for a whole run.
type Store struct {
	records   map[int]*ChapterRecord
	completed int
}

func NewStore() *Store {
	return &Store{records: make(map[int]*ChapterRecord)}
}

// AppendPage adds a sanitized page to the chapter, creating the record on
// its first page.
func (s *Store) AppendPage(number int, text string) error {
	rec, ok := s.records[number]
	if !ok {
		var err error
		rec, err = newChapterRecord(number)
		if err != nil {
			return err
		}
		s.records[number] = rec
	}

	if rec.complete {
		return fmt.Errorf("%w: %d", ErrChapterComplete, number)
	}

	rec.Pages = append(rec.Pages, text)
	return nil
}

// Complete seals a chapter. nextURL may be empty only for the last chapter.
func (s *Store) Complete(number int, title, nextURL string) error {
	rec, ok := s.records[number]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownChapter, number)
	}
	if rec.complete {
		return fmt.Errorf("%w: %d", ErrChapterComplete, number)
	}
	if title == "" {
		return fmt.Errorf("%w: %d", ErrMissingTitle, number)
	}

	rec.Title = title
	rec.NextChapterURL = nextURL
	rec.complete = true
	s.completed++

	return nil
}

func (s *Store) Get(number int) (*ChapterRecord, bool) {
	rec, ok := s.records[number]
	return rec, ok
}

func (s *Store) Has(number int) bool {
	_, ok := s.records[number]
	return ok
}

// NextChapterURL reports the recorded next-chapter link of a completed
// chapter.
func (s *Store) NextChapterURL(number int) (string, bool) {
	rec, ok := s.records[number]
	if !ok || !rec.complete || rec.NextChapterURL == "" {
		return "", false
	}

	return rec.NextChapterURL, true
}

func (s *Store) Len() int {
	return len(s.records)
}

func (s *Store) Completed() int {
	return s.completed
}

// Numbers returns the stored chapter numbers in ascending order.
func (s *Store) Numbers() []int {
	out := make([]int, 0, len(s.records))
	for n := range s.records {
		out = append(out, n)
	}
	sort.Ints(out)

	return out
}

// Missing lists the numbers in [1, expected] without a complete record.
func (s *Store) Missing(expected int) []int {
	var out []int
	for n := 1; n <= expected; n++ {
		rec, ok := s.records[n]
		if !ok || !rec.complete || len(rec.Pages) == 0 {
			out = append(out, n)
		}
	}

	return out
}
