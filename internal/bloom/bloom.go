// Package bloom defines the six ordered Bloom's taxonomy levels used to tag
// curriculum content and student activity.
package bloom

import (
	"fmt"
	"strings"
)

// Level is a single cognitive-skill category.
type Level string

const (
	Remembering   Level = "remembering"
	Understanding Level = "understanding"
	Applying      Level = "applying"
	Analyzing     Level = "analyzing"
	Evaluating    Level = "evaluating"
	Creating      Level = "creating"
)

// ordered lists the levels from lowest to highest cognitive demand.
var ordered = []Level{
	Remembering,
	Understanding,
	Applying,
	Analyzing,
	Evaluating,
	Creating,
}

// Levels returns all levels in taxonomy order.
func Levels() []Level {
	out := make([]Level, len(ordered))
	copy(out, ordered)
	return out
}

// Parse returns the level matching s (case-insensitive), or an error when s
// is not a valid Bloom level.
func Parse(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range ordered {
		if l == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid bloom level: %q", s)
}

// Valid reports whether l is one of the six taxonomy levels.
func (l Level) Valid() bool {
	for _, v := range ordered {
		if l == v {
			return true
		}
	}
	return false
}

// Index returns the position of l in the taxonomy (0 = remembering), or -1
// for an unknown level.
func (l Level) Index() int {
	for i, v := range ordered {
		if l == v {
			return i
		}
	}
	return -1
}

func (l Level) String() string {
	return string(l)
}
