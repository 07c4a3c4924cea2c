// Package logging hands out per-module slog loggers whose levels follow a
// global level with per-module overrides.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Config is the [logging] table of a device config.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

var (
	mutex           sync.RWMutex
	globalConfig    Config
	out             io.Writer = os.Stdout
	moduleLoggers   = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
)

// SetOutput redirects text/JSON output (e.g. to a console UART). Loggers
// created afterwards, or rebuilt by Initialize, use w.
func SetOutput(w io.Writer) {
	mutex.Lock()
	out = w
	mutex.Unlock()
}

// Initialize applies config to every existing module logger and to the
// default slog logger.
func Initialize(config Config) {
	mutex.Lock()
	defer mutex.Unlock()

	globalConfig = config
	for module, lv := range moduleLevelVars {
		lv.Set(levelFor(module))
		moduleLoggers[module] = slog.New(createHandler(config.Format, lv)).With("module", module)
	}

	global := &slog.LevelVar{}
	global.Set(parseLevel(config.Level, slog.LevelInfo))
	slog.SetDefault(slog.New(createHandler(config.Format, global)))
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	mutex.RLock()
	l, ok := moduleLoggers[module]
	mutex.RUnlock()
	if ok {
		return l
	}

	mutex.Lock()
	defer mutex.Unlock()
	if l, ok := moduleLoggers[module]; ok {
		return l
	}
	lv := &slog.LevelVar{}
	lv.Set(levelFor(module))
	l = slog.New(createHandler(globalConfig.Format, lv)).With("module", module)
	moduleLoggers[module] = l
	moduleLevelVars[module] = lv
	return l
}

// levelFor resolves the module override, then the global level. Caller holds mutex.
func levelFor(module string) slog.Level {
	global := parseLevel(globalConfig.Level, slog.LevelInfo)
	if s, ok := globalConfig.Modules[module]; ok {
		return parseLevel(s, global)
	}
	return global
}

func createHandler(format string, level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	if j := newJournalHandler(level); j != nil {
		return NewMultiHandler(h, j)
	}
	return h
}

func parseLevel(level string, def slog.Level) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return def
	}
}
