// Package clock abstracts wall-clock reads so time-sensitive rules
// (past-slot rejection, cancellation cutoffs) stay deterministic in tests.
package clock

import "time"

type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to a Clock.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// System reads the real wall clock.
func System() Clock {
	return Func(time.Now)
}

// Fixed always returns t.
func Fixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}
