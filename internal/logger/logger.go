// Package logger provides leveled logging for the comfydock application.
//
// The logger writes timestamped, level-prefixed lines to stderr. It is
// intentionally small: comfydock is a CLI tool whose primary output goes to
// stdout, and the log stream exists for operators diagnosing builds and
// deployments. Debug logging is enabled with the global --verbose flag.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Level represents a logging severity level.
type Level int

const (
	// LevelDebug logs everything, including per-request and per-step detail.
	LevelDebug Level = iota

	// LevelInfo logs normal operational messages. This is the default.
	LevelInfo

	// LevelWarn logs recoverable problems.
	LevelWarn

	// LevelError logs failures.
	LevelError
)

var levelNames = map[Level]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
}

var (
	mu     sync.Mutex
	level  = LevelInfo
	output io.Writer = os.Stderr
)

// SetLevel sets the minimum severity level that will be logged.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	level = l
}

// SetVerbose switches between debug and info level logging.
//
// This is a convenience for wiring the --verbose CLI flag.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelInfo)
	}
}

// SetOutput redirects log output. Used by tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug logs a message at debug level using printf-style formatting.
func Debug(format string, args ...any) {
	logf(LevelDebug, format, args...)
}

// Info logs a message at info level using printf-style formatting.
func Info(format string, args ...any) {
	logf(LevelInfo, format, args...)
}

// Warn logs a message at warn level using printf-style formatting.
func Warn(format string, args ...any) {
	logf(LevelWarn, format, args...)
}

// Error logs a message at error level using printf-style formatting.
func Error(format string, args ...any) {
	logf(LevelError, format, args...)
}

func logf(l Level, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()

	if l < level {
		return
	}

	ts := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(output, "%s [%s] %s\n", ts, levelNames[l], fmt.Sprintf(format, args...))
}
