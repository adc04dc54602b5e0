// Package logging builds the zerolog logger from configuration.
//
// The interactive UI owns the terminal, so without a log file its logger
// discards everything; the batch commands log to stderr.
package logging

import (
	"io"
	"os"

	"github.com/nconklindev/colmap/internal/config"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Setup builds the logger, installs it as zerolog's default context logger,
// and returns a closer for the log file, if one was opened.
func Setup(cfg config.LoggingConfig, interactive bool) (zerolog.Logger, io.Closer, error) {
	var (
		out    io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)

	switch {
	case cfg.File != "":
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Nop(), nil, errors.Errorf("opening log file: %w", err)
		}
		out, closer = f, f
	case interactive:
		out = io.Discard
	}

	logger := New(out, cfg.Level, cfg.Format, cfg.File != "")
	zerolog.DefaultContextLogger = &logger
	return logger, closer, nil
}

// New returns a logger writing to out. Console output is colored unless
// noColor is set.
func New(out io.Writer, level, format string, noColor bool) zerolog.Logger {
	if format != "json" {
		out = zerolog.ConsoleWriter{Out: out, NoColor: noColor, TimeFormat: "15:04:05"}
	}
	return zerolog.New(out).Level(ParseLevel(level)).With().Timestamp().Logger()
}

// ParseLevel converts a level name to a zerolog.Level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
