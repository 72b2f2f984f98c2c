package downloader

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ztrue/tracerr"
)

// ErrIncomplete means the run settled before every expected chapter was
// complete. No document is produced in that case.
var ErrIncomplete = errors.New("download incomplete")

// FetchError is a fetch that still failed after the retry budget.
type FetchError struct {
	URL      string
	Attempts uint
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DefectError is an internal invariant violation. It is never retried and
// aborts the run.
type DefectError struct {
	err tracerr.Error
}

func newDefect(format string, args ...any) *DefectError {
	return &DefectError{err: tracerr.Errorf(format, args...)}
}

func wrapDefect(err error) *DefectError {
	return &DefectError{err: tracerr.Wrap(err)}
}

func (e *DefectError) Error() string {
	return "internal error: " + e.err.Error()
}

func (e *DefectError) Unwrap() error { return errors.Unwrap(e.err) }

// Stack renders the error with the stack captured where it was raised.
func (e *DefectError) Stack() string {
	return tracerr.Sprint(e.err)
}

func IsDefect(err error) bool {
	var d *DefectError
	return errors.As(err, &d)
}

// ChapterError attaches a chapter number to a fetch or parse failure.
type ChapterError struct {
	Number int
	Err    error
}

func (e *ChapterError) Error() string {
	return fmt.Sprintf("chapter %d: %v", e.Number, e.Err)
}

func (e *ChapterError) Unwrap() error { return e.Err }

// RunError is returned with ErrIncomplete and lists what kept the run from
// finishing.
type RunError struct {
	Expected int
	Missing  []int
	Errors   []error
}

func (e *RunError) Error() string {
	var b strings.Builder
	b.WriteString(ErrIncomplete.Error())

	if e.Expected > 0 {
		fmt.Fprintf(&b, ": %d of %d chapters missing", len(e.Missing), e.Expected)
	} else {
		b.WriteString(": chapter index not fully walked")
	}
	fmt.Fprintf(&b, " (%d error(s))", len(e.Errors))

	return b.String()
}

func (e *RunError) Unwrap() error { return ErrIncomplete }
