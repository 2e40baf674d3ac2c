// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package log configures structured logging for the scraper.
package log

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

// New returns a zerolog logger writing to w at the given level. Unknown
// levels fall back to info. When console is true, output is human-readable;
// otherwise JSON lines.
func New(w io.Writer, level string, console bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	if console {
		w = zerolog.ConsoleWriter{Out: w}
	}

	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// WithRun returns a child logger tagged with a batch run ID.
func WithRun(logger zerolog.Logger, runID string) zerolog.Logger {
	return logger.With().Str("run_id", runID).Logger()
}
