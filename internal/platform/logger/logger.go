package logger

import (
	"io"
	"log/slog"
	"strings"
)

// New returns a structured JSON logger using slog, writing to w at the given level.
// Unknown levels fall back to info; the second return reports whether the level was recognised.
func New(level string, w io.Writer) (*slog.Logger, bool) {
	lvl, ok := ParseLevel(level)
	opts := &slog.HandlerOptions{
		Level: lvl,
	}
	handler := slog.NewJSONHandler(w, opts)
	return slog.New(handler), ok
}

// ParseLevel maps LOG_LEVEL values (case-insensitive) to slog levels.
// An empty string is info.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return slog.LevelDebug, true
	case "", "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}
