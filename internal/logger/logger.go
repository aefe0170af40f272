// Package logger is the process-wide structured logger: slog text
// output on stderr, debug level gated by the WORKLOG_DEBUG env var.
package logger

import (
	"log/slog"
	"os"
)

var log = newLogger()

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("WORKLOG_DEBUG") == "true" {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func Debug(msg string, args ...any) {
	log.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	log.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	log.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	log.Error(msg, args...)
}

// Fatal logs at error level and exits. Reserved for startup failures.
func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}
