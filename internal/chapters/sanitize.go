package chapters

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultFilters are the navigation labels, watermark and reader-mode
// interstitials that the site injects into chapter text.
var DefaultFilters = []string{
	`<br\s*/?>`,
	`&nbsp;`,
	`www\.dudu0\.com`,
	`上一章`,
	`下一章`,
	`上一页`,
	`下一页`,
	`返回目录`,
	`最新网址`,
	`关闭+\+?畅/读=,看完整内容。本章未完,请点击【`,
	`】继续阅读。`,
	`请关闭-畅\*读/模式阅读。`,
	`document\.getElementById.+=\s`,
}

var reBlankRuns = regexp.MustCompile(`\n(?:[ \t\r\f\v\x{3000}]*\n)+`)

type Sanitizer struct {
	re *regexp.Regexp
}

// NewSanitizer compiles DefaultFilters plus extra patterns.
func NewSanitizer(extra []string) (*Sanitizer, error) {
	patterns := make([]string, 0, len(DefaultFilters)+len(extra))
	patterns = append(patterns, DefaultFilters...)

	for _, p := range extra {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("filter %q: %w", p, err)
		}
		if re.MatchString("") {
			return nil, fmt.Errorf("filter %q matches empty text", p)
		}
		patterns = append(patterns, "(?:"+p+")")
	}

	re, err := regexp.Compile("(?i)" + strings.Join(patterns, "|"))
	if err != nil {
		return nil, err
	}

	return &Sanitizer{re: re}, nil
}

// Sanitize replaces every filtered pattern with a newline, then collapses
// runs of blank lines into one line break. It repeats both passes until the
// text stops changing, so Sanitize(Sanitize(x)) == Sanitize(x).
func (s *Sanitizer) Sanitize(text string) string {
	for {
		next := s.re.ReplaceAllLiteralString(text, "\n")
		next = reBlankRuns.ReplaceAllLiteralString(next, "\n")
		if next == text {
			return next
		}
		text = next
	}
}
