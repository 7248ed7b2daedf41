// Package link implements the USB 2.0 high-speed chirp handshake of a
// simulated UTMI link.
//
// The handshake is expressed as a pure state-table function, [Transition],
// that maps the current [State], the link [Inputs] and the [TimerStatus] to
// the next state and an [Outputs] vector. A [Sequencer] owns the registers
// the table reads and writes (state, timer, toggle counter and the
// high-speed-active flag) and evaluates the table once per clock tick.
//
// A [Bridge] couples a sequencer with a byte-oriented PHY stream the way a
// UTMI stream fixup does: received bytes are registered one tick late,
// RxActive stretches every valid pulse by one tick, and bytes transmitted
// by the device reach the PHY only once high speed is active.
//
// # Timing
//
// Timer thresholds are expressed in ticks of the USB clock:
//
//	timings := link.DefaultTimings(60e6) // 600, 300 and 7500 ticks
//	seq := link.NewSequencer(timings)
//	for !seq.HSActive() {
//	    seq.Tick(txValid)
//	}
package link
