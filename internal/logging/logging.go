package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init creates and sets the package-level default slog logger on stderr.
// jsonOutput selects the JSON handler; use it whenever stdout carries NDJSON
// predictions or when running the HTTP server under a log collector.
func Init(jsonOutput bool, level slog.Level) {
	slog.SetDefault(New(os.Stderr, jsonOutput, level))
}

// New builds a logger writing to w.
func New(w io.Writer, jsonOutput bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if jsonOutput {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
