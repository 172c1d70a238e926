// Package util provides low-level helpers shared by all other packages.
package util

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// LogLevel controls output verbosity.
type LogLevel int

const (
	LogQuiet   LogLevel = 0
	LogNormal  LogLevel = 1
	LogVerbose LogLevel = 2
	LogDebug   LogLevel = 3
)

// Logger writes levelled status lines to stderr.  Loggers derived with
// [Logger.With] share the parent's output and lock, so lines from
// concurrent relays never interleave mid-line.
type Logger struct {
	level      LogLevel
	output     *sharedOutput
	prefix     string
	timestamps bool
}

type sharedOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogger returns a Logger that prints messages at or below the given
// verbosity (0 = quiet, 1 = normal, 2 = verbose, 3 = debug).
func NewLogger(verbosity int) *Logger {
	return &Logger{
		level:      LogLevel(verbosity),
		output:     &sharedOutput{w: os.Stderr},
		timestamps: verbosity >= 3,
	}
}

// With returns a child logger that prefixes every message with
// "prefix: ".  The child shares the parent's writer.
func (l *Logger) With(prefix string) *Logger {
	child := *l
	if l.prefix != "" {
		child.prefix = l.prefix + ": " + prefix
	} else {
		child.prefix = prefix
	}
	return &child
}

// SetTimestamps enables or disables timestamp prefixes.
func (l *Logger) SetTimestamps(on bool) { l.timestamps = on }

// SetOutput overrides the output writer (default: os.Stderr).  The
// change is visible to every logger derived from l.
func (l *Logger) SetOutput(w io.Writer) {
	l.output.mu.Lock()
	l.output.w = w
	l.output.mu.Unlock()
}

// Level returns the current log level.
func (l *Logger) Level() LogLevel { return l.level }

// Info prints when verbosity ≥ 1.  Prefixed with [INF].
func (l *Logger) Info(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write("INF", format, args...)
	}
}

// Warn prints when verbosity ≥ 1.  Prefixed with [WRN].
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.level >= LogNormal {
		l.write("WRN", format, args...)
	}
}

// Verbose prints when verbosity ≥ 2.  Prefixed with [VRB].
func (l *Logger) Verbose(format string, args ...interface{}) {
	if l.level >= LogVerbose {
		l.write("VRB", format, args...)
	}
}

// Debug prints when verbosity ≥ 3.  Prefixed with [DBG].
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.level >= LogDebug {
		l.write("DBG", format, args...)
	}
}

// Error always prints regardless of verbosity.  Prefixed with [ERR].
func (l *Logger) Error(format string, args ...interface{}) {
	l.write("ERR", format, args...)
}

func (l *Logger) write(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		msg = l.prefix + ": " + msg
	}

	l.output.mu.Lock()
	defer l.output.mu.Unlock()

	if l.timestamps {
		ts := time.Now().Format("15:04:05.000")
		fmt.Fprintf(l.output.w, "%s [%s] %s\n", ts, level, msg)
	} else {
		fmt.Fprintf(l.output.w, "[%s] %s\n", level, msg)
	}
}
