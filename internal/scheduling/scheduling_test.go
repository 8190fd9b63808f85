package scheduling

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalOverlaps(t *testing.T) {
	base := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)

	a := NewInterval(base, 60) // 10:00-11:00

	// Proper overlap
	assert.True(t, a.Overlaps(NewInterval(base.Add(30*time.Minute), 60)))
	assert.True(t, NewInterval(base.Add(30*time.Minute), 60).Overlaps(a))

	// Containment
	assert.True(t, a.Overlaps(NewInterval(base.Add(15*time.Minute), 15)))

	// Touching endpoints are not conflicts
	assert.False(t, a.Overlaps(NewInterval(base.Add(60*time.Minute), 60)))
	assert.False(t, a.Overlaps(NewInterval(base.Add(-60*time.Minute), 60)))

	// Disjoint
	assert.False(t, a.Overlaps(NewInterval(base.Add(3*time.Hour), 60)))
}

func TestDurationOrDefault(t *testing.T) {
	ninety := 90
	zero := 0
	assert.Equal(t, 90, DurationOrDefault(&ninety))
	assert.Equal(t, DefaultDurationMinutes, DurationOrDefault(nil))
	assert.Equal(t, DefaultDurationMinutes, DurationOrDefault(&zero))
}

func TestMinutesBetween(t *testing.T) {
	start := time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 47, MinutesBetween(start, start.Add(47*time.Minute)))
	// Rounds to the nearest minute
	assert.Equal(t, 47, MinutesBetween(start, start.Add(47*time.Minute+20*time.Second)))
	assert.Equal(t, 48, MinutesBetween(start, start.Add(47*time.Minute+40*time.Second)))
	assert.Equal(t, 0, MinutesBetween(start, start))
}
