package log

import (
	"log/slog"
	"strings"
)

// Level is the minimum severity a Logger emits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levels = []struct {
	level Level
	names []string
	slog  slog.Level
}{
	{LevelDebug, []string{"debug"}, slog.LevelDebug},
	{LevelInfo, []string{"info", ""}, slog.LevelInfo},
	{LevelWarn, []string{"warn", "warning"}, slog.LevelWarn},
	{LevelError, []string{"error"}, slog.LevelError},
}

// String returns the upper-case level name.
func (l Level) String() string {
	for _, e := range levels {
		if e.level == l {
			return strings.ToUpper(e.names[0])
		}
	}
	return "UNKNOWN"
}

// ToSlogLevel maps the level onto slog. Unknown levels map to info.
func (l Level) ToSlogLevel() slog.Level {
	for _, e := range levels {
		if e.level == l {
			return e.slog
		}
	}
	return slog.LevelInfo
}

// LookupLevel resolves a level name as written in config files and
// MARS_LOG_LEVEL. The empty name is info.
func LookupLevel(s string) (Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, e := range levels {
		for _, n := range e.names {
			if n == s {
				return e.level, true
			}
		}
	}
	return LevelInfo, false
}

// ParseLevel is LookupLevel with unknown names falling back to info.
func ParseLevel(s string) Level {
	l, _ := LookupLevel(s)
	return l
}
