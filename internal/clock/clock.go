package clock

import (
	"sync"
	"time"
)

// Clock supplies the server-side notion of "now".
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Monotonic wraps a Clock so that successive readings are strictly increasing
// at millisecond resolution, the precision BSON dates are stored with.
type Monotonic struct {
	mu   sync.Mutex
	src  Clock
	last time.Time
}

func NewMonotonic(src Clock) *Monotonic {
	if src == nil {
		src = SystemClock{}
	}
	return &Monotonic{src: src}
}

func (m *Monotonic) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.src.Now().UTC().Truncate(time.Millisecond)
	if !now.After(m.last) {
		now = m.last.Add(time.Millisecond)
	}
	m.last = now
	return now
}
