package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger("debug", nil)
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	logger = NewLogger("invalid", nil)
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", logger.GetLevel())
	}

	logger = NewLogger("", nil)
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback for empty level, got %s", logger.GetLevel())
	}
}

func TestNewLoggerWrites(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("WARN", &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Str("book", "a.xlsx").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info message should be filtered at warn level")
	}
	if !strings.Contains(out, `"book":"a.xlsx"`) {
		t.Errorf("expected structured field, got %q", out)
	}
}

func TestNewConsoleLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewConsoleLogger("info", &buf, true)
	logger.Info().Msg("opened workbook")
	if !strings.Contains(buf.String(), "opened workbook") {
		t.Errorf("got %q", buf.String())
	}
}
