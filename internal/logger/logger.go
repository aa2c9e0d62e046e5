// Package logger configures the process-wide structured logger used by the
// HTTP server. Records are JSON lines with UTC RFC3339Nano timestamps.
package logger

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// Config selects where records go and how verbose they are.
type Config struct {
	// Output receives JSON records. Nil discards them.
	Output io.Writer

	// Debug lowers the level to debug and adds source locations.
	Debug bool
}

var (
	mu     sync.RWMutex
	global = slog.New(slog.NewJSONHandler(io.Discard, nil))
)

// New builds a logger from cfg without touching the global one.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = io.Discard
	}

	level := slog.LevelInfo
	addSource := false
	if cfg.Debug {
		level = slog.LevelDebug
		addSource = true
	}

	h := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       level,
		AddSource:   addSource,
		ReplaceAttr: utcTime,
	})
	return slog.New(h)
}

// Setup installs a logger built from cfg as the global logger and returns
// a function that restores the discarding default.
func Setup(cfg Config) func() {
	l := New(cfg)

	mu.Lock()
	global = l
	mu.Unlock()

	l.Debug("logger.initialized", "debug", cfg.Debug)

	return func() {
		mu.Lock()
		defer mu.Unlock()
		global = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
}

// L returns the global logger.
func L() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func utcTime(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
		a.Value = slog.StringValue(a.Value.Time().UTC().Format(time.RFC3339Nano))
	}
	return a
}
