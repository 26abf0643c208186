package cmd

import (
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// parseLevel maps a level name onto a slog level, defaulting to info.
func parseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger builds the process logger. With a log file, records are written
// as JSON to a rotating file; otherwise as text to stderr.
func newLogger(level, file string) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if file == "" {
		return slog.New(slog.NewTextHandler(os.Stderr, opts)), func() error { return nil }
	}

	rotator := &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	return slog.New(slog.NewJSONHandler(rotator, opts)), rotator.Close
}
