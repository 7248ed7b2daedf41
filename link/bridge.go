package link

import (
	"github.com/liteluna/usblink/board"
	"github.com/liteluna/usblink/pkg"
)

// PHYSide is what the PHY stream and the link layer present to a bridge on
// one tick.
type PHYSide struct {
	// From the PHY source (host to device).
	RxData  byte
	RxValid bool

	// From the link layer (device to host).
	TxData  byte
	TxValid bool

	// From the PHY sink.
	SinkReady bool
}

// UTMI is what a bridge drives on one tick.
type UTMI struct {
	// To the link layer.
	RxData    byte
	RxValid   bool
	RxActive  bool
	LineState LineState
	TxReady   bool
	VBusValid bool
	HSActive  bool

	// To the PHY source: the offered rx byte was consumed.
	SourceReady bool

	// To the PHY sink.
	SinkData  byte
	SinkValid bool
}

// Bridge couples a [Sequencer] with a byte-oriented PHY stream. It is not
// safe for concurrent use.
type Bridge struct {
	seq      *Sequencer
	polarity board.Polarity

	rxData  byte
	rxValid bool

	dropped uint64
}

// NewBridge creates a bridge whose reset input has the given polarity.
func NewBridge(t Timings, polarity board.Polarity) *Bridge {
	return &Bridge{
		seq:      NewSequencer(t),
		polarity: polarity,
	}
}

// Sequencer returns the bridge's handshake sequencer.
func (b *Bridge) Sequencer() *Sequencer {
	return b.seq
}

// SetReset samples the reset pin. An asserted level returns the link to
// RESET and clears the rx registers.
func (b *Bridge) SetReset(level bool) {
	if !b.polarity.Asserted(level) {
		return
	}
	b.seq.Reset()
	b.rxData = 0
	b.rxValid = false
}

// Tick evaluates one clock tick.
func (b *Bridge) Tick(in PHYSide) UTMI {
	hs := b.seq.HSActive()
	accepted := in.RxValid && hs

	out := UTMI{
		RxData:      b.rxData,
		RxValid:     b.rxValid,
		RxActive:    in.RxValid || b.rxValid,
		VBusValid:   true,
		HSActive:    hs,
		SourceReady: hs,
		TxReady:     in.SinkReady,
		SinkData:    in.TxData,
		SinkValid:   in.TxValid && hs,
	}

	if in.TxValid && !hs {
		b.dropped++
	}

	step := b.seq.Tick(in.TxValid)
	out.LineState = step.LineState

	b.rxData = in.RxData
	b.rxValid = accepted
	return out
}

// Dropped returns the number of tx bytes offered before high speed.
func (b *Bridge) Dropped() uint64 {
	return b.dropped
}

// Reset clears the bridge and its sequencer regardless of polarity.
func (b *Bridge) Reset() {
	b.SetReset(b.polarity.Level(true))
	if b.dropped > 0 {
		pkg.LogDebug(pkg.ComponentLink, "bridge reset", "dropped", b.dropped)
	}
	b.dropped = 0
}
