package logger

import (
	"log/slog"
	"os"
)

// Logger is a thin wrapper around slog that carries the service name and an
// action tag on every entry. It is passed by value; With/Action return copies.
type Logger struct {
	sl *slog.Logger
}

// New builds a JSON logger writing to stdout, tagged with the service name
// and hostname.
func New(service string) Logger {
	hostname, _ := os.Hostname()
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})
	sl := slog.New(handler).With("service", service, "hostname", hostname)
	return Logger{sl: sl}
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() Logger {
	return Logger{sl: slog.New(slog.DiscardHandler)}
}

// Action returns a logger that tags subsequent entries with the given action.
func (l Logger) Action(action string) Logger {
	return Logger{sl: l.sl.With("action", action)}
}

// With returns a logger with extra key-value context.
func (l Logger) With(args ...any) Logger {
	return Logger{sl: l.sl.With(args...)}
}

// WithGroup starts an attribute group, mirroring slog.Logger.WithGroup.
func (l Logger) WithGroup(name string) Logger {
	return Logger{sl: l.sl.WithGroup(name)}
}

func (l Logger) Debug(msg string, args ...any) {
	l.sl.Debug(msg, args...)
}

func (l Logger) Info(msg string, args ...any) {
	l.sl.Info(msg, args...)
}

func (l Logger) Warn(msg string, args ...any) {
	l.sl.Warn(msg, args...)
}

func (l Logger) Error(msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.sl.Error(msg, args...)
}
