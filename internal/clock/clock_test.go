package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMonotonicStrictlyIncreasesOnFrozenSource(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMonotonic(NewFakeClock(base))

	first := m.Now()
	second := m.Now()
	third := m.Now()

	assert.Equal(t, base, first)
	assert.Equal(t, base.Add(time.Millisecond), second)
	assert.Equal(t, base.Add(2*time.Millisecond), third)
}

func TestMonotonicIgnoresBackwardsSkew(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := NewFakeClock(base)
	m := NewMonotonic(fake)

	first := m.Now()
	fake.Advance(-time.Minute)
	second := m.Now()

	assert.True(t, second.After(first))
}

func TestMonotonicTruncatesToMillisecond(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 1500, time.UTC)
	m := NewMonotonic(NewFakeClock(base))

	got := m.Now()
	assert.Equal(t, 0, got.Nanosecond()%int(time.Millisecond))
	assert.Equal(t, time.UTC, got.Location())
}

func TestMonotonicFollowsAdvancingSource(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := NewFakeClock(base)
	m := NewMonotonic(fake)

	_ = m.Now()
	fake.Advance(time.Hour)
	assert.Equal(t, base.Add(time.Hour), m.Now())
}
