package chapters

import (
	"fmt"
	"strings"
)

// Merge concatenates every stored chapter in ascending numeric order as
// title, newline, pages joined by a blank line, followed by a blank line.
// It refuses to produce anything unless chapters 1..expected are complete.
func Merge(s *Store, expected int) (string, error) {
	if expected <= 0 {
		return "", fmt.Errorf("%w: nothing expected", ErrChaptersMissing)
	}
	if missing := s.Missing(expected); len(missing) > 0 {
		return "", fmt.Errorf("%w: %v", ErrChaptersMissing, missing)
	}

	var b strings.Builder
	for _, n := range s.Numbers() {
		rec := s.records[n]
		if !rec.complete {
			continue
		}

		b.WriteString(rec.Title)
		b.WriteString("\n")
		b.WriteString(strings.Join(rec.Pages, "\n\n"))
		b.WriteString("\n\n")
	}

	return b.String(), nil
}
