// Package logging wires up the gateway's structured logger.
//
// The teacher tags log lines by component with a bracketed prefix, e.g.
// log.Printf("[websocket %s] closing: %v", peerID, err). This package
// keeps that tagging intent but promotes it to structured slog fields so
// task_id/session_id/component survive log aggregation.
package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
)

// New builds the root logger. When file is empty, logs go to stderr with
// the tint console handler (colorized, human-readable); otherwise JSON
// lines are appended to file, suited for production log shipping.
func New(level, file string) (*slog.Logger, error) {
	lvl := parseLevel(level)

	var out io.Writer = os.Stderr
	var handler slog.Handler

	if file != "" {
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		out = f
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl})
	} else {
		handler = tint.NewHandler(out, &tint.Options{Level: lvl})
	}

	return slog.New(handler), nil
}

func parseLevel(s string) slog.Level {
	switch s {
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

// Component returns a child logger tagged with a component name, the
// structured equivalent of the teacher's "[component] ..." prefix.
func Component(l *slog.Logger, name string) *slog.Logger {
	return l.With("component", name)
}
