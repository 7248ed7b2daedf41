package link

import (
	"fmt"

	"github.com/liteluna/usblink/pkg"
)

// Timings holds the timer thresholds of the handshake in clock ticks.
type Timings struct {
	BusReset uint32 // SE0 hold before full speed (10 µs)
	Chirp    uint32 // Length of each device chirp K or J (5 µs)
	Toggle   uint32 // Period of the keep-alive K/J toggle (125 µs)
}

// Handshake durations.
const (
	BusResetSeconds = 10e-6
	ChirpSeconds    = 5e-6
	ToggleSeconds   = 125e-6
)

// DefaultTimings scales the handshake durations to a clock frequency in Hz.
// Every threshold is at least one tick.
func DefaultTimings(clockHz float64) Timings {
	ticks := func(seconds float64) uint32 {
		n := uint32(clockHz * seconds)
		if n == 0 {
			n = 1
		}
		return n
	}
	return Timings{
		BusReset: ticks(BusResetSeconds),
		Chirp:    ticks(ChirpSeconds),
		Toggle:   ticks(ToggleSeconds),
	}
}

// Validate checks that no threshold is zero.
func (t Timings) Validate() error {
	if t.BusReset == 0 || t.Chirp == 0 || t.Toggle == 0 {
		return fmt.Errorf("timings %+v: %w", t, pkg.ErrInvalidParameter)
	}
	return nil
}

// TimerStatus reports which thresholds the timer reaches on the current tick.
type TimerStatus struct {
	BusReset bool
	Chirp    bool
	Toggle   bool
}

// Timer is a multi-threshold wait timer. While wait is asserted it counts
// ticks; de-asserting wait clears the count.
type Timer struct {
	timings Timings
	count   uint32
}

// NewTimer creates a timer for the given thresholds.
func NewTimer(t Timings) *Timer {
	return &Timer{timings: t}
}

// Status returns the thresholds reached if wait is held for the current
// tick, i.e. after the count advances.
func (t *Timer) Status() TimerStatus {
	n := t.count + 1
	return TimerStatus{
		BusReset: n >= t.timings.BusReset,
		Chirp:    n >= t.timings.Chirp,
		Toggle:   n >= t.timings.Toggle,
	}
}

// Step advances the timer by one tick.
func (t *Timer) Step(wait bool) {
	if !wait {
		t.count = 0
		return
	}
	if t.count < ^uint32(0) {
		t.count++
	}
}

// Count returns the number of consecutive ticks wait has been held.
func (t *Timer) Count() uint32 {
	return t.count
}

// Clear resets the count.
func (t *Timer) Clear() {
	t.count = 0
}
