// Package logging builds the structured logger. The terminal editor owns the
// screen, so log records go to a rotating file instead of stderr.
package logging

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the log destination and verbosity.
type Options struct {
	File       string // empty: stderr when Stderr is set, otherwise discard
	Stderr     bool
	Level      slog.Level
	MaxSizeMB  int
	MaxBackups int
	JSON       bool
}

// New returns a logger and a function that flushes and closes its output.
func New(opts Options) (*slog.Logger, func() error) {
	var (
		w      io.Writer
		closer = func() error { return nil }
	)
	switch {
	case opts.File != "":
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		}
		w, closer = lj, lj.Close
	case opts.Stderr:
		w = os.Stderr
	default:
		return slog.New(slog.DiscardHandler), closer
	}

	ho := &slog.HandlerOptions{Level: opts.Level}
	var h slog.Handler = slog.NewTextHandler(w, ho)
	if opts.JSON {
		h = slog.NewJSONHandler(w, ho)
	}
	return slog.New(h), closer
}
