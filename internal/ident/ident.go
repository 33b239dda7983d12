// internal/ident/ident.go
package ident

import (
	"strings"
	"time"
)

const (
	// MediaPrefix is prepended to every book and DVD identifier.
	MediaPrefix = "BO"
	// BorrowerPrefix is prepended to every borrower identifier.
	BorrowerPrefix = "BR"

	// Layout is the timestamp part of an identifier: yyyyMMddHHmmss, 24-hour clock.
	Layout = "20060102150405"

	prefixLen = 2
)

// Clock returns the current wall-clock time.
type Clock func() time.Time

// Generator builds identifiers from a prefix and the current time.
// Two identifiers generated within the same second are equal.
type Generator struct {
	now Clock
}

// NewGenerator returns a Generator reading time from now. A nil clock uses time.Now.
func NewGenerator(now Clock) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{now: now}
}

// Generate returns prefix followed by the current time formatted with Layout.
func (g *Generator) Generate(prefix string) string {
	return Format(prefix, g.now())
}

// Now exposes the generator clock so callers share one notion of time.
func (g *Generator) Now() time.Time {
	return g.now()
}

// Format renders an identifier for the given instant.
func Format(prefix string, t time.Time) string {
	return prefix + t.Format(Layout)
}

// ParseTimestamp extracts the creation time encoded after the two-character prefix.
// The timestamp is interpreted in loc, matching how the clock rendered it.
func ParseTimestamp(id string, loc *time.Location) (time.Time, bool) {
	if len(id) <= prefixLen {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(Layout, id[prefixLen:], loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasPrefix reports whether id carries the given role prefix.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix)
}
