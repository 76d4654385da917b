// Package debug provides category-gated diagnostic logging.
//
// Output is controlled by two knobs: ROUTEBIND_DEBUG selects WHICH
// subsystems log (a comma-separated category list, or "all"), and
// ROUTEBIND_LOG_LEVEL selects HOW MUCH they log. Both can also come
// from config via Init; the environment wins.
//
// Categories: transport, lifecycle, streaming, records, config, all.
// Levels: error, warn, info, debug, trace.
package debug

import (
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
	"unicode/utf8"
)

// LevelTrace sits below slog.LevelDebug. At trace, per-frame payloads
// are logged (truncated).
const LevelTrace = slog.LevelDebug - 4

type categorySet struct {
	all   bool
	names map[string]struct{}
}

func (cs *categorySet) has(name string) bool {
	if cs.all {
		return true
	}
	_, ok := cs.names[name]
	return ok
}

// active holds the enabled category set. Swapped atomically so Init
// can be called after requests are already flowing.
var active atomic.Pointer[categorySet]

func init() {
	active.Store(parseCategories(os.Getenv("ROUTEBIND_DEBUG")))
}

// Init applies category and level settings from config, letting the
// ROUTEBIND_DEBUG and ROUTEBIND_LOG_LEVEL environment variables
// override them. It replaces the default slog logger.
func Init(configCategories, configLevel string) {
	cats := os.Getenv("ROUTEBIND_DEBUG")
	if cats == "" {
		cats = configCategories
	}
	active.Store(parseCategories(cats))

	level := os.Getenv("ROUTEBIND_LOG_LEVEL")
	if level == "" {
		level = configLevel
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
}

// Enabled reports whether the category is selected for debug output.
func Enabled(category string) bool {
	return active.Load().has(category)
}

// Log emits a debug-level message if the category is enabled.
func Log(category, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message if the category is enabled. Only
// visible when the log level is trace.
func Trace(category, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(nil, LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether Trace output for the category would
// actually be emitted, so callers can skip expensive formatting.
func TraceIsEnabled(category string) bool {
	return Enabled(category) && slog.Default().Enabled(nil, LevelTrace)
}

var levelNames = map[string]slog.Level{
	"trace":   LevelTrace,
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// ParseLevel converts a level name to a slog.Level. Unknown or empty
// names map to info.
func ParseLevel(s string) slog.Level {
	if lvl, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl
	}
	return slog.LevelInfo
}

// Truncate shortens s to at most maxLen bytes, marking the cut. The
// cut lands on a rune boundary so truncated output stays valid UTF-8.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func parseCategories(s string) *categorySet {
	cs := &categorySet{names: make(map[string]struct{})}
	for _, name := range strings.Split(s, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		switch name {
		case "":
		case "all":
			cs.all = true
		default:
			cs.names[name] = struct{}{}
		}
	}
	return cs
}
