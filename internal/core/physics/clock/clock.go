// Package clock supplies wall-clock time to the simulation stepper.
package clock

import (
	"sync"
	"time"
)

// Clock returns the current time. Implementations must be monotonic.
type Clock interface {
	Now() time.Time
}

type system struct{}

// System reads time.Now, which carries a monotonic reading.
func System() Clock { return system{} }

func (system) Now() time.Time { return time.Now() }

// Manual is a Clock that only moves when told to.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d. Negative durations are ignored.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// Seconds advances the clock by s seconds.
func (m *Manual) Seconds(s float64) {
	m.Advance(time.Duration(s * float64(time.Second)))
}
