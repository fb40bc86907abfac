package clock

import "time"

// Timer is a cancellable one-shot timer. Stop reports whether the call
// prevented the timer from firing; stopping an already-stopped or
// already-fired timer is a no-op.
type Timer interface {
	Stop() bool
}

// Clock provides time operations that can be mocked for testing
type Clock interface {
	Now() time.Time

	// AfterFunc schedules f to run in its own goroutine after d
	AfterFunc(d time.Duration, f func()) Timer
}

// RealClock implements Clock using the system clock
type RealClock struct{}

// New creates a new RealClock
func New() *RealClock {
	return &RealClock{}
}

// Now returns the current time
func (c *RealClock) Now() time.Time {
	return time.Now()
}

// AfterFunc schedules f using time.AfterFunc
func (c *RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
