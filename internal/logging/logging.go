// Package logging holds the process-wide structured logger shared by every engine package.
//
// Nothing is logged until SetLogger is called. Levels used by the engine:
//   - Debug: per-frame diagnostics (pipeline cache misses, buffer growth)
//   - Info: lifecycle events (adapter selected, renderer selected, G-Buffer created)
//   - Warn: degraded behavior (draw capacity exceeded, missing uniform)
//   - Error: resource creation failures, shader compile failures
package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(nopHandler{}))
}

// SetLogger replaces the engine logger. Passing nil restores the silent default.
// Safe for concurrent use.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	current.Store(l)
}

// Logger returns the engine logger.
func Logger() *slog.Logger {
	return current.Load()
}

// ParseLevel maps a config level name to a slog.Level. Unknown names map to Info.
//
// Parameters:
//   - name: one of "debug", "info", "warn", "error"
//
// Returns:
//   - slog.Level: the matching level
func ParseLevel(name string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
