package service

import "time"

// Clock returns the current time. Tests substitute a controllable one.
type Clock func() time.Time

// SystemClock is UTC wall time truncated to the millisecond precision the
// document store keeps, so timestamps compare equal after a round trip.
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

type settings struct {
	clock Clock
}

// Option customises a service at construction time.
type Option func(*settings)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *settings) {
		if c != nil {
			s.clock = c
		}
	}
}

func applyOptions(opts []Option) settings {
	s := settings{clock: SystemClock}
	for _, o := range opts {
		o(&s)
	}
	return s
}
