// Package logging defines the structured Logger contract every component
// in this module is injected with, plus a no-op default for tests and a
// charmbracelet/log-backed implementation for production use.
package logging

import (
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is the capability-set contract every pipeline component logs
// through. It is never aliased to a concrete logging library type outside
// this package, so swapping backends touches only NewCharm.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
}

// NoOpLogger discards everything. It is the safe default for tests and
// for callers that have not wired a real logger.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// Level mirrors the four levels the spec's config schema names.
type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// charmLogger adapts charmbracelet/log to the Logger contract.
type charmLogger struct {
	l *charmlog.Logger
}

// NewCharm builds a Logger backed by charmbracelet/log, writing to file
// (when non-empty) or stderr otherwise, at the given level.
func NewCharm(level Level, file string) (Logger, error) {
	out := os.Stderr
	if file != "" {
		f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		out = f
	}

	l := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
	})
	l.SetLevel(parseLevel(level))
	return &charmLogger{l: l}, nil
}

func parseLevel(level Level) charmlog.Level {
	switch level {
	case LevelDebug:
		return charmlog.DebugLevel
	case LevelWarn:
		return charmlog.WarnLevel
	case LevelError:
		return charmlog.ErrorLevel
	default:
		return charmlog.InfoLevel
	}
}

func (c *charmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *charmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *charmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *charmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }
