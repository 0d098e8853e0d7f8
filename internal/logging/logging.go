package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Debug controls whether debug logs are printed.
var Debug bool

// New builds a structured logger writing to w. format is "json" or "text";
// level is one of debug, info, warn, error. Debug forces debug level.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if Debug {
		opts.Level = slog.LevelDebug
	}
	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Debugf logs a formatted debug message when Debug is enabled.
func Debugf(format string, v ...any) {
	if Debug {
		slog.Default().Log(context.Background(), slog.LevelDebug, fmt.Sprintf(format, v...))
	}
}
