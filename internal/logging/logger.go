// Package logging builds the process logger: a colored tint handler on
// stderr, optionally fanned out to a plain-text file sink.
package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/lmittmann/tint"

	"github.com/backmassage/posefeed/internal/config"
	"github.com/backmassage/posefeed/internal/term"
)

// Logger wraps *slog.Logger and owns the optional log file.
type Logger struct {
	*slog.Logger

	mu   sync.Mutex
	file *os.File
}

// NewLogger configures term colors from cfg and builds the console handler
// on stderr. When cfg.Log.File is set the file is opened for append and
// receives every record as logfmt text. Call Close when done.
func NewLogger(cfg *config.Config) (*Logger, error) {
	return newLogger(cfg, os.Stderr)
}

func newLogger(cfg *config.Config, console *os.File) (*Logger, error) {
	level := slog.LevelInfo
	if cfg.Log.Verbose {
		level = slog.LevelDebug
	}
	color := term.Configure(cfg.Log.Color, console)

	var w io.Writer = io.Discard
	if console != nil {
		w = console
	}
	handlers := []slog.Handler{
		tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
			NoColor:    !color,
		}),
	}

	l := &Logger{}
	if cfg.Log.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Log.File), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		l.file = f
		handlers = append(handlers, slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	}

	if len(handlers) == 1 {
		l.Logger = slog.New(handlers[0])
	} else {
		l.Logger = slog.New(fanout(handlers))
	}
	return l, nil
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// fanout sends every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}
