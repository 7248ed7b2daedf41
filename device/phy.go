package device

import (
	"github.com/liteluna/usblink/board"
	"github.com/liteluna/usblink/link"
	"github.com/liteluna/usblink/pkg"
)

// DefaultChirpTicks is how long the device drives its chirp K.
const DefaultChirpTicks = 8

// frameGap is the number of idle source ticks between host frames. The
// bridge stretches RxActive by its registered rx byte, so one idle tick
// would merge adjacent frames.
const frameGap = 2

// PHY clocks a [Core] through a [link.Bridge]. Host packets are offered to
// the bridge one byte per tick; when RxActive falls the collected bytes go
// to the core, and its response is sent back one byte per tick.
// It is not safe for concurrent use.
type PHY struct {
	bridge     *link.Bridge
	core       *Core
	polarity   board.Polarity
	chirpTicks int
	chirpLeft  int

	rxQueue [][]byte
	rxCur   []byte
	rxPos   int
	gap     int

	collect  []byte
	rxActive bool

	txQueue [][]byte
	txPos   int
	sink    []byte
}

// NewPHY creates a PHY driving core. chirpTicks of zero selects
// DefaultChirpTicks.
func NewPHY(core *Core, t link.Timings, polarity board.Polarity, chirpTicks int) *PHY {
	if chirpTicks <= 0 {
		chirpTicks = DefaultChirpTicks
	}
	return &PHY{
		bridge:     link.NewBridge(t, polarity),
		core:       core,
		polarity:   polarity,
		chirpTicks: chirpTicks,
		chirpLeft:  chirpTicks,
	}
}

// Core returns the device core.
func (p *PHY) Core() *Core { return p.core }

// Bridge returns the link bridge.
func (p *PHY) Bridge() *link.Bridge { return p.bridge }

// HSActive reports whether the link completed its chirp handshake.
func (p *PHY) HSActive() bool { return p.bridge.Sequencer().HSActive() }

// Receive queues one host packet for the rx stream.
func (p *PHY) Receive(frame []byte) {
	if len(frame) == 0 {
		return
	}
	p.rxQueue = append(p.rxQueue, frame)
}

// Idle reports whether no packet is pending in either direction.
func (p *PHY) Idle() bool {
	return p.rxCur == nil && len(p.rxQueue) == 0 && p.gap == 0 &&
		!p.rxActive && len(p.collect) == 0 && len(p.txQueue) == 0
}

// SetReset samples the reset pin. Asserting it resets the link and the core.
func (p *PHY) SetReset(level bool) {
	p.bridge.SetReset(level)
	if p.polarity.Asserted(level) {
		p.resetDevice()
	}
}

// Reset asserts and releases reset.
func (p *PHY) Reset() {
	p.bridge.Reset()
	p.resetDevice()
}

func (p *PHY) resetDevice() {
	p.core.Reset()
	p.chirpLeft = p.chirpTicks
	p.rxCur, p.rxPos, p.gap = nil, 0, 0
	p.collect, p.rxActive = nil, false
	p.txQueue, p.txPos, p.sink = nil, 0, nil
}

// Tick evaluates one clock tick. It returns the device packet whose last
// byte reached the PHY sink on this tick, or nil.
func (p *PHY) Tick() []byte {
	seq := p.bridge.Sequencer()
	in := link.PHYSide{SinkReady: true}

	if seq.State() == link.StateReset {
		p.chirpLeft = p.chirpTicks
	}
	switch {
	case !seq.HSActive():
		st := seq.State()
		if (st == link.StateFS || st == link.StateGetChirp) && p.chirpLeft > 0 {
			in.TxValid = true
			p.chirpLeft--
		}
	case len(p.txQueue) > 0:
		in.TxData = p.txQueue[0][p.txPos]
		in.TxValid = true
	}

	if p.gap > 0 {
		p.gap--
	} else if p.rxCur == nil && len(p.rxQueue) > 0 {
		p.rxCur, p.rxQueue = p.rxQueue[0], p.rxQueue[1:]
		p.rxPos = 0
	}
	if p.rxCur != nil && p.gap == 0 {
		in.RxData = p.rxCur[p.rxPos]
		in.RxValid = true
	}

	u := p.bridge.Tick(in)

	if in.RxValid && u.SourceReady {
		p.rxPos++
		if p.rxPos == len(p.rxCur) {
			p.rxCur = nil
			p.gap = frameGap
		}
	}

	if u.RxValid {
		p.collect = append(p.collect, u.RxData)
	}
	if p.rxActive && !u.RxActive {
		p.deliver()
	}
	p.rxActive = u.RxActive

	var done []byte
	if u.SinkValid && u.TxReady {
		p.sink = append(p.sink, u.SinkData)
		p.txPos++
		if p.txPos == len(p.txQueue[0]) {
			done = p.sink
			p.sink = nil
			p.txQueue = p.txQueue[1:]
			p.txPos = 0
		}
	}
	return done
}

// deliver hands a completed rx packet to the core.
func (p *PHY) deliver() {
	pkt := p.collect
	p.collect = nil
	if len(pkt) == 0 {
		return
	}
	if resp := p.core.HandlePacket(pkt); len(resp) > 0 {
		p.txQueue = append(p.txQueue, resp)
	}
	pkg.LogDebug(pkg.ComponentSim, "rx packet", "len", len(pkt), "ticks", p.bridge.Sequencer().Ticks())
}
