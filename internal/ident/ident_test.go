package ident

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	fixed := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.Local)
	g := NewGenerator(func() time.Time { return fixed })

	assert.Equal(t, "BR20240101120000", g.Generate(BorrowerPrefix))
	assert.Equal(t, "BO20240101120000", g.Generate(MediaPrefix))
}

func TestGenerateZeroPadsAndUses24HourClock(t *testing.T) {
	at := time.Date(2023, time.March, 5, 21, 7, 9, 0, time.Local)
	assert.Equal(t, "BO20230305210709", Format(MediaPrefix, at))
}

// Identifiers only have second resolution, so two creations in the same
// second collide.
func TestGenerateCollidesWithinSameSecond(t *testing.T) {
	base := time.Date(2024, time.June, 1, 8, 30, 15, 0, time.Local)
	ticks := []time.Time{base, base.Add(400 * time.Millisecond)}
	i := 0
	g := NewGenerator(func() time.Time {
		now := ticks[i]
		i++
		return now
	})

	assert.Equal(t, g.Generate(MediaPrefix), g.Generate(MediaPrefix))
}

func TestNewGeneratorDefaultsToWallClock(t *testing.T) {
	g := NewGenerator(nil)
	before := time.Now().Truncate(time.Second)

	id := g.Generate(BorrowerPrefix)

	ts, ok := ParseTimestamp(id, time.Local)
	require.True(t, ok)
	assert.False(t, ts.Before(before))
}

func TestParseTimestamp(t *testing.T) {
	testCases := []struct {
		id   string
		ok   bool
		want time.Time
	}{
		{"BR20240101120000", true, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)},
		{"BO19991231235959", true, time.Date(1999, 12, 31, 23, 59, 59, 0, time.UTC)},
		{"BR", false, time.Time{}},
		{"", false, time.Time{}},
		{"BRnot-a-date", false, time.Time{}},
		{"BR2024010112000", false, time.Time{}},
		{"BR20241301120000", false, time.Time{}},
	}

	for _, tt := range testCases {
		got, ok := ParseTimestamp(tt.id, time.UTC)
		assert.Equal(t, tt.ok, ok, tt.id)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), tt.id)
		}
	}
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("BR20240101120000", BorrowerPrefix))
	assert.False(t, HasPrefix("BO20240101120000", BorrowerPrefix))
	assert.False(t, HasPrefix("xBR2024", BorrowerPrefix))
}
