// Package logger provides structured logging for trellis.
// Output is JSON lines on stderr. Debug messages are only written when
// verbose mode is enabled via the --verbose flag; --pretty switches to a
// human readable console format.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	pretty  bool
	output  io.Writer = os.Stderr
	base              = build(os.Stderr, false, false)
)

// build creates the root logger. Callers must hold mu for writing.
func build(w io.Writer, isVerbose, isPretty bool) zerolog.Logger {
	if isPretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}

	level := zerolog.InfoLevel
	if isVerbose {
		level = zerolog.DebugLevel
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Str("service", "trellis").
		Logger()
}

// SetVerbose enables or disables debug logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	base = build(output, verbose, pretty)
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetPretty switches between JSON lines and console output.
func SetPretty(p bool) {
	mu.Lock()
	defer mu.Unlock()
	pretty = p
	base = build(output, verbose, pretty)
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build(output, verbose, pretty)
}

func root() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// Debug writes a debug message if verbose mode is enabled.
func Debug(format string, args ...any) {
	l := root()
	l.Debug().Msgf(format, args...)
}

// Section marks the start of a processing stage in debug output.
func Section(name string) {
	l := root()
	l.Debug().Str("section", name).Msg(fmt.Sprintf("=== %s ===", name))
}

// Info writes an informational message.
func Info(format string, args ...any) {
	l := root()
	l.Info().Msgf(format, args...)
}

// Warn writes a warning message.
func Warn(format string, args ...any) {
	l := root()
	l.Warn().Msgf(format, args...)
}

// Error writes an error message with err attached.
func Error(err error, format string, args ...any) {
	l := root()
	l.Error().Err(err).Msgf(format, args...)
}

// With returns a logger carrying fields on every message, e.g. the event id
// and object path of the event being handled.
func With(fields map[string]any) zerolog.Logger {
	l := root()
	return l.With().Fields(fields).Logger()
}
