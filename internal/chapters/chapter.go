package chapters

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// ChapterRecord accumulates the pages of one chapter. Pages keep fetch order.
// Title and NextChapterURL are set once, when the chapter completes.
type ChapterRecord struct {
	Number         int
	Title          string
	Pages          []string
	NextChapterURL string

	complete bool
}

func newChapterRecord(number int) (*ChapterRecord, error) {
	if number <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNumber, number)
	}

	return &ChapterRecord{Number: number}, nil
}

func (c *ChapterRecord) Complete() bool {
	return c.complete
}

// Summary is a short excerpt of the first page, for progress output.
func (c *ChapterRecord) Summary(n int) string {
	if len(c.Pages) == 0 {
		return ""
	}

	s := strings.Join(strings.Fields(c.Pages[0]), " ")
	r := []rune(s)
	if len(r) > n {
		return string(r[:n]) + "…"
	}

	return s
}

// EscapeEntry is an index entry that had no content link. Its start URL is
// borrowed from the preceding chapter once that one has completed.
type EscapeEntry struct {
	Number int
	Title  string
}

// DefaultTitle is used when a chapter page carries no usable <title>.
func DefaultTitle(number int) string {
	return fmt.Sprintf("第%d章", number)
}

var reUnderscore = regexp.MustCompile(`_+`)

func sanitizeName(s string) string {
	repl := []string{
		"•", "_",
		"—", "_",
		"–", "_",
		"/", "_",
		"\\", "_",
		" ", "_",
		"　", "_",
		":", "_",
		"：", "_",
	}
	for i := 0; i < len(repl); i += 2 {
		s = strings.ReplaceAll(s, repl[i], repl[i+1])
	}

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' {
			clean = append(clean, r)
		}
	}
	s = reUnderscore.ReplaceAllString(string(clean), "_")

	return strings.Trim(s, "_.")
}

// FileName derives the output text file name from a book title.
func FileName(bookTitle string) string {
	base := sanitizeName(bookTitle)
	if base == "" {
		base = "novel"
	}

	return base + ".txt"
}
