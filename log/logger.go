// Package log is a minimal logging wrapper used across the build core.
package log

import (
	"fmt"
	"io"
)

// Logger is a minimal wrapper around an io.Writer.
type Logger struct {
	io.Writer

	// Verbose gates Vlogf output.
	Verbose bool
}

// New returns a new logger which writes to w.
func New(w io.Writer) *Logger {
	return &Logger{Writer: w}
}

// Logln logs a line.
func (l *Logger) Logln(args ...interface{}) {
	fmt.Fprintln(l, args...)
}

// Logf logs a formatted string.
func (l *Logger) Logf(f string, args ...interface{}) {
	fmt.Fprintf(l, f, args...)
}

// LogBuildfln logs a formatted line, prefixed with `solbuild: `.
func (l *Logger) LogBuildfln(format string, args ...interface{}) {
	fmt.Fprintf(l, "solbuild: "+format+"\n", args...)
}

// Vlogf logs a formatted string only when Verbose is set.
func (l *Logger) Vlogf(format string, args ...interface{}) {
	if !l.Verbose {
		return
	}
	l.Logf(format, args...)
}
