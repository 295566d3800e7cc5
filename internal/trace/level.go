package trace

import (
	"fmt"
	"strings"
)

// Level controls how deep tracing goes.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // nothing streamed; the ring is dumped on a crash
	LevelPhase        // driver and pass spans
	LevelDetail       // + one span per checked item
	LevelDebug        // + a point per unsized move
)

var levelNames = []string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a --trace-level value; empty means off.
func ParseLevel(s string) (Level, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelOff, nil
	}
	for i, name := range levelNames {
		if name == s {
			return Level(i), nil
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames, "|"))
}

// deepest maps each level to the finest scope it emits.
var deepest = [...]Scope{
	LevelPhase:  ScopePass,
	LevelDetail: ScopeItem,
	LevelDebug:  ScopeNode,
}

// ShouldEmit reports whether events of scope pass at level l.
func (l Level) ShouldEmit(scope Scope) bool {
	if int(l) >= len(deepest) {
		return false
	}
	limit := deepest[l]
	return limit != 0 && scope <= limit
}
