package domain

import "github.com/jonboulle/clockwork"

// clock is the package-level time source for generated timestamps and
// scoring times. Tests freeze it via SetClock.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// Clock returns the current package time source.
func Clock() clockwork.Clock {
	return clock
}
