package link

import (
	"github.com/liteluna/usblink/pkg"
)

// Step describes one evaluated tick of a sequencer.
type Step struct {
	Outputs

	State    State // State resident during the tick
	Next     State // State after the tick
	HSActive bool  // Registered high-speed-active flag during the tick
	Toggles  int   // Toggle counter after the tick
}

// Sequencer drives the chirp handshake one clock tick at a time. It is not
// safe for concurrent use.
type Sequencer struct {
	timer    *Timer
	state    State
	toggles  int
	hsActive bool
	ticks    uint64
}

// NewSequencer creates a sequencer in the RESET state.
func NewSequencer(t Timings) *Sequencer {
	return &Sequencer{timer: NewTimer(t)}
}

// Tick evaluates the state table for one clock tick and updates the
// registers. txValid is the link layer's transmit-valid signal.
func (s *Sequencer) Tick(txValid bool) Step {
	in := Inputs{TxValid: txValid, Toggles: s.toggles}
	next, out := Transition(s.state, in, s.timer.Status())

	step := Step{
		Outputs:  out,
		State:    s.state,
		Next:     next,
		HSActive: s.hsActive,
	}

	s.timer.Step(out.TimerWait)
	switch {
	case out.ResetToggles:
		s.toggles = 0
	case out.IncToggles && s.toggles < KJPairs:
		s.toggles++
	}
	switch {
	case out.ClearHSActive:
		s.hsActive = false
	case out.SetHSActive:
		s.hsActive = true
	}

	if next != s.state {
		pkg.LogDebug(pkg.ComponentLink, "state",
			"from", s.state,
			"to", next,
			"tick", s.ticks,
			"toggles", s.toggles)
	}
	if next == StateHSActivated && s.state == StatePreHSActivated {
		pkg.LogInfo(pkg.ComponentLink, "high speed handshake complete", "tick", s.ticks)
	}

	s.state = next
	s.ticks++
	step.Toggles = s.toggles
	return step
}

// Reset returns the sequencer to RESET and clears every register.
func (s *Sequencer) Reset() {
	if s.state != StateReset {
		pkg.LogDebug(pkg.ComponentLink, "reset", "from", s.state, "tick", s.ticks)
	}
	s.state = StateReset
	s.toggles = 0
	s.hsActive = false
	s.timer.Clear()
}

// State returns the current state.
func (s *Sequencer) State() State {
	return s.state
}

// Toggles returns the number of chirp K/J pairs sent since the last chirp.
func (s *Sequencer) Toggles() int {
	return s.toggles
}

// HSActive returns the registered high-speed-active flag.
func (s *Sequencer) HSActive() bool {
	return s.hsActive
}

// Ticks returns the number of ticks evaluated.
func (s *Sequencer) Ticks() uint64 {
	return s.ticks
}
