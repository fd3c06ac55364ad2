// Package logging builds the zerolog logger shared by the CLI and the workbook facade.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger returns a timestamped logger writing to w at the given level.
// An empty or unknown level falls back to info. A nil w writes to stderr.
func NewLogger(level string, w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// NewConsoleLogger is NewLogger with human-readable output for terminals.
func NewConsoleLogger(level string, w io.Writer, noColor bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: "15:04:05"}
	return NewLogger(level, console)
}
