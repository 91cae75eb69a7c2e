// Package logging builds the zerolog loggers used across vselect. The picker
// owns the terminal while it runs, so logs go to a file unless debugging.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// Output destinations.
const (
	OutputFile    = "file"
	OutputStderr  = "stderr"
	OutputDiscard = "discard"
)

// Formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config describes where and how to log.
type Config struct {
	Level  string // debug, info, warn, error; anything else means info
	Format string // json or console
	Output string // file, stderr or discard
	File   string // log file path when Output is file
}

// Result is a configured logger and the file behind it, if any.
type Result struct {
	Logger zerolog.Logger
	RunID  string

	FilePath       string
	UsingFile      bool
	FallbackUsed   bool
	FallbackReason string

	file *os.File
}

// Close closes the log file. It is safe to call on a Result without a file.
func (r *Result) Close() error {
	if r == nil || r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// New builds a logger for cfg. Every record carries a run_id. When the log
// file cannot be opened, logging is discarded and the reason is reported in
// the Result so the caller can warn before the terminal is taken over.
func New(cfg Config) *Result {
	res := &Result{RunID: NewRunID()}

	var w io.Writer
	switch cfg.Output {
	case OutputStderr:
		w = os.Stderr
	case OutputDiscard:
		w = io.Discard
	default:
		f, err := openLogFile(cfg.File)
		if err != nil {
			res.FallbackUsed = true
			res.FallbackReason = err.Error()
			w = io.Discard
			break
		}
		res.file = f
		res.FilePath = cfg.File
		res.UsingFile = true
		w = f
	}

	res.Logger = build(cfg, w, res.RunID)
	return res
}

// NewWithWriter builds a logger that writes to w.
func NewWithWriter(cfg Config, w io.Writer) zerolog.Logger {
	return build(cfg, w, NewRunID())
}

func build(cfg Config, w io.Writer, runID string) zerolog.Logger {
	if cfg.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: true}
	}
	return zerolog.New(w).
		Level(ParseLevel(cfg.Level)).
		With().
		Timestamp().
		Str("run_id", runID).
		Logger()
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("no log file configured")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open log file: %w", err)
	}
	return f, nil
}

// ParseLevel parses level, falling back to info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// NewRunID returns a new sortable run identifier.
func NewRunID() string {
	return ulid.Make().String()
}

// Component returns l tagged with component=name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// WithContext returns ctx carrying l.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// FromContext returns the logger carried by ctx, or a disabled logger.
func FromContext(ctx context.Context) zerolog.Logger {
	return *zerolog.Ctx(ctx)
}
