package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var (
	levelVar slog.LevelVar
	output   io.Writer = os.Stderr
)

func init() {
	levelVar.Set(slog.LevelInfo)
	slog.SetDefault(slog.New(newHandler(output)))
}

func newHandler(w io.Writer) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: &levelVar})
}

// ParseLevel converts a level name to a slog.Level
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "fatal", "panic":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// SetLevel changes the minimum level of the default logger
func SetLevel(level slog.Level) {
	levelVar.Set(level)
}

// SetOutput redirects log output, e.g. to a file configured in techwatch.yaml
func SetOutput(w io.Writer) {
	output = w
	slog.SetDefault(slog.New(newHandler(w)))
}

func Debug(msg string, args ...any) { slog.Debug(msg, args...) }
func Info(msg string, args ...any)  { slog.Info(msg, args...) }
func Warn(msg string, args ...any)  { slog.Warn(msg, args...) }
func Error(msg string, args ...any) { slog.Error(msg, args...) }

// With returns a logger with fixed attributes, used to scope logs to one run.
func With(args ...any) *slog.Logger {
	return slog.Default().With(args...)
}
