// Package clock abstracts the current time so services and tests share one
// source of truth for timestamps.
package clock

import "time"

// Clock yields the current instant. Services depend on it instead of
// calling time.Now directly, which lets tests pin time.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

// NewSystem returns the wall clock. All timestamps it yields are UTC.
func NewSystem() Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

type fixedClock struct {
	now time.Time
}

// NewFixed returns a clock frozen at t, for tests.
func NewFixed(t time.Time) Clock {
	return fixedClock{now: t.UTC()}
}

func (f fixedClock) Now() time.Time {
	return f.now
}
