// Package logger configures the structured logger shared by zb-install.
package logger

import (
	"io"
	"log/slog"
)

// Options controls logger construction.
type Options struct {
	// Verbose lowers the level to debug. The default level is warn so a
	// normal interactive run only shows prompts and status lines.
	Verbose bool
}

// New returns a text logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return Discard()
	}
	return l
}
