package ui

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

var (
	debugTag = color.New(color.FgHiBlack).Sprint("[DEBUG]")
	infoTag  = color.New(color.FgCyan).Sprint("[INFO]")
	warnTag  = color.New(color.FgYellow).Sprint("[WARN]")
	errorTag = color.New(color.FgRed, color.Bold).Sprint("[ERROR]")
)

// Logger writes leveled lines. It is safe for concurrent use.
type Logger struct {
	Debug bool

	mu  sync.Mutex
	out io.Writer
}

func NewLogger(debug bool) *Logger {
	return &Logger{Debug: debug, out: os.Stdout}
}

// NewLoggerTo is NewLogger with a custom destination; tests pass io.Discard.
func NewLoggerTo(w io.Writer, debug bool) *Logger {
	return &Logger{Debug: debug, out: w}
}

func (l *Logger) printf(tag, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = fmt.Fprintf(l.out, tag+" "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.Debug {
		l.printf(debugTag, format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.printf(infoTag, format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.printf(warnTag, format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.printf(errorTag, format, args...)
}
