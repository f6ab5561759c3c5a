// Package logging provides structured logging for piante built on zerolog.
//
// Loggers travel through context.Context: commands attach a configured logger
// with zerolog's WithContext and every component retrieves it with FromContext,
// adding "component" and "operation" fields of its own. Events logged with
// .Ctx(ctx) are stamped with the request trace ID when one is present.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Output and format names accepted by Config.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
	OutputStderr  = "stderr"
	OutputFile    = "file"
)

// Config describes how a logger is built.
type Config struct {
	// Level is a zerolog level name ("debug", "info", ...). Unknown values fall back to info.
	Level string

	// Format is "console" (human readable) or "json".
	Format string

	// Output is "stderr" or "file".
	Output string

	// File is the log file path used when Output is "file".
	File string

	// Caller adds the source location to each event.
	Caller bool
}

// LogPathResult reports where a logger ended up writing.
type LogPathResult struct {
	Logger         zerolog.Logger
	UsingFile      bool
	FilePath       string
	FallbackUsed   bool
	FallbackReason string

	file *os.File
}

// Close releases the log file handle, if any.
func (r *LogPathResult) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// NewLogger builds a logger for cfg, falling back to stderr when the file cannot be opened.
func NewLogger(cfg Config) zerolog.Logger {
	return NewLoggerWithPath(cfg).Logger
}

// NewLoggerWithPath builds a logger for cfg and reports the chosen destination.
// File output that cannot be opened degrades to stderr; the reason is recorded
// in the result so callers can tell the user.
func NewLoggerWithPath(cfg Config) LogPathResult {
	result := LogPathResult{}

	var out io.Writer = os.Stderr
	if cfg.Output == OutputFile && cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
		if err != nil {
			result.FallbackUsed = true
			result.FallbackReason = err.Error()
		} else {
			out = f
			result.file = f
			result.UsingFile = true
			result.FilePath = cfg.File
		}
	}

	if !strings.EqualFold(cfg.Format, FormatJSON) && !result.UsingFile {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctxLogger := zerolog.New(out).
		Level(ParseLevel(cfg.Level)).
		Hook(traceHook{}).
		With().
		Timestamp()
	if cfg.Caller {
		ctxLogger = ctxLogger.Caller()
	}
	result.Logger = ctxLogger.Logger()

	return result
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// FromContext returns the logger stored in ctx.
// When ctx carries no logger, a warn-level stderr logger is returned so that
// library code never writes through a nil or disabled logger by accident.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
			return l
		}
	}
	return &fallbackLogger
}

// ComponentLogger returns a child logger tagged with the given component name.
func ComponentLogger(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}

// PrintLogPathMessage tells the user where logs are being written.
func PrintLogPathMessage(w io.Writer, path string) {
	_, _ = fmt.Fprintf(w, "Logging to %s\n", path)
}

// PrintFallbackWarning tells the user that file logging could not be enabled.
func PrintFallbackWarning(w io.Writer, reason string) {
	_, _ = fmt.Fprintf(w, "Warning: could not open log file, logging to stderr (%s)\n", reason)
}

//nolint:gochecknoglobals // shared default for contexts without a logger
var fallbackLogger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	Level(zerolog.WarnLevel).
	Hook(traceHook{}).
	With().
	Timestamp().
	Logger()
