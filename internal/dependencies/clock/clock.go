package clock

import "time"

// Clock abstracts the current time. Token expiry, presence timestamps,
// and the inactivity reaper all read time through it, so tests can
// advance a mock instead of sleeping.
type Clock interface {
	Now() time.Time
}

// RealClock reads the system clock
type RealClock struct{}

// New creates a RealClock
func New() *RealClock {
	return &RealClock{}
}

func (c *RealClock) Now() time.Time {
	return time.Now()
}
