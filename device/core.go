package device

import (
	"log/slog"

	"github.com/liteluna/usblink/packet"
	"github.com/liteluna/usblink/pkg"
)

// Transform maps the payload of a bulk OUT packet to the payload the device
// queues for bulk IN. The result must not exceed MaxBulkPacketSize.
type Transform func([]byte) []byte

// Invert returns payload with every bit flipped, as the streamer gateware
// does between its OUT and IN streams.
func Invert(payload []byte) []byte {
	out := make([]byte, len(payload))
	for i, b := range payload {
		out[i] = ^b
	}
	return out
}

// controlStage tracks where EP0 is inside a control transfer.
type controlStage int

const (
	stageIdle      controlStage = iota
	stageDataIn                 // Sending the data stage
	stageStatusOut              // Waiting for the host's zero-length OUT
	stageStatusIn               // Host will IN for a zero-length DATA1
	stageStalled                // Request refused until the next SETUP
)

// Stats counts what a core has seen and answered.
type Stats struct {
	Packets    uint64 // Packets decoded
	Ignored    uint64 // Bad CRC, other address or no matching token
	Acks       uint64
	Naks       uint64
	Stalls     uint64
	Duplicates uint64 // Retransmitted OUT data acknowledged and dropped
}

// CoreOptions configures a [Core].
type CoreOptions struct {
	// Transform produces IN payloads from OUT payloads. Nil means Invert.
	Transform Transform

	// InQueueDepth bounds the packets waiting for bulk IN. Zero means
	// DefaultInQueueDepth. A full queue NAKs further OUT data.
	InQueueDepth int
}

// Core is a packet-level USB device. It answers each decoded host packet
// with the packet a bulk-streamer device would send back, or with nothing.
// It is not safe for concurrent use.
type Core struct {
	desc      Descriptors
	transform Transform
	depth     int

	state          State
	address        uint8
	pendingAddress int // -1 when no SET_ADDRESS is pending
	configuration  uint8
	remoteWakeup   bool
	frame          uint16

	ep0In, ep0Out   *Endpoint
	bulkIn, bulkOut *Endpoint

	token     *packet.Token // Token awaiting its data packet
	inflight  *Endpoint     // IN data sent and not yet acknowledged
	inflightN int

	stage    controlStage
	ctrlData []byte
	ctrlSent int
	ctrlLen  int

	queue [][]byte
	stats Stats
}

// NewCore creates a core serving desc.
func NewCore(desc Descriptors, opts CoreOptions) *Core {
	c := &Core{
		desc:      desc,
		transform: opts.Transform,
		depth:     opts.InQueueDepth,
		ep0In:     &Endpoint{Address: 0x80, Attributes: EndpointTypeControl, MaxPacketSize: MaxPacketSize0},
		ep0Out:    &Endpoint{Address: 0x00, Attributes: EndpointTypeControl, MaxPacketSize: MaxPacketSize0},
	}
	if c.transform == nil {
		c.transform = Invert
	}
	if c.depth <= 0 {
		c.depth = DefaultInQueueDepth
	}
	for _, ep := range desc.Endpoints() {
		if ep.EndpointAddress&0x0F != BulkEndpoint {
			continue
		}
		if ep.EndpointAddress&0x80 != 0 {
			c.bulkIn = NewEndpoint(ep)
		} else {
			c.bulkOut = NewEndpoint(ep)
		}
	}
	c.Reset()
	return c
}

// Reset performs a USB bus reset: address 0, unconfigured, every endpoint
// back to DATA0 and the loopback queue emptied.
func (c *Core) Reset() {
	c.state = StateDefault
	c.address = 0
	c.pendingAddress = -1
	c.configuration = 0
	c.remoteWakeup = false
	c.token = nil
	c.inflight = nil
	c.stage = stageIdle
	c.ctrlData = nil
	c.queue = nil
	for _, ep := range c.endpoints() {
		ep.SetStall(false)
	}
	pkg.LogDebug(pkg.ComponentDevice, "bus reset")
}

func (c *Core) endpoints() []*Endpoint {
	eps := []*Endpoint{c.ep0In, c.ep0Out}
	if c.bulkIn != nil {
		eps = append(eps, c.bulkIn)
	}
	if c.bulkOut != nil {
		eps = append(eps, c.bulkOut)
	}
	return eps
}

// State returns the device state.
func (c *Core) State() State { return c.state }

// Address returns the address the core answers to.
func (c *Core) Address() uint8 { return c.address }

// Configuration returns the active configuration value, 0 if unconfigured.
func (c *Core) Configuration() uint8 { return c.configuration }

// Frame returns the frame number of the last SOF.
func (c *Core) Frame() uint16 { return c.frame }

// Queued returns the number of packets waiting for bulk IN.
func (c *Core) Queued() int { return len(c.queue) }

// Stats returns the packet counters.
func (c *Core) Stats() Stats { return c.stats }

// HandlePacket processes one packet from the host and returns the encoded
// response, or nil when the device stays silent.
func (c *Core) HandlePacket(raw []byte) []byte {
	p, err := packet.Decode(raw)
	if err != nil {
		c.stats.Ignored++
		pkg.LogDebug(pkg.ComponentDevice, "drop packet", "data", pkg.Hex(raw), "error", err)
		return nil
	}
	c.stats.Packets++

	resp := c.dispatch(p)
	if pkg.Enabled(slog.LevelDebug) {
		pkg.LogDebug(pkg.ComponentDevice, "packet",
			"rx", p,
			"tx", pkg.Hex(resp),
			"address", c.address)
	}
	return resp
}

func (c *Core) dispatch(p packet.Packet) []byte {
	switch p := p.(type) {
	case packet.SOF:
		c.frame = p.Frame
		return nil

	case packet.Token:
		c.token = nil
		c.inflight = nil
		if p.Address != c.address {
			c.stats.Ignored++
			return nil
		}
		switch p.Kind {
		case packet.PIDSetup, packet.PIDOut:
			c.token = &p
			return nil
		case packet.PIDIn:
			return c.in(p.Endpoint)
		case packet.PIDPing:
			return c.ping(p.Endpoint)
		}

	case packet.Data:
		tok := c.token
		c.token = nil
		if tok == nil || (p.Kind != packet.PIDData0 && p.Kind != packet.PIDData1) {
			c.stats.Ignored++
			return nil
		}
		if tok.Kind == packet.PIDSetup {
			if tok.Endpoint != 0 {
				c.stats.Ignored++
				return nil
			}
			return c.setup(p)
		}
		return c.out(tok.Endpoint, p)

	case packet.Handshake:
		if p.Kind == packet.PIDAck {
			c.acked()
		}
		return nil
	}

	c.stats.Ignored++
	return nil
}

func (c *Core) handshake(pid packet.PID) []byte {
	switch pid {
	case packet.PIDAck:
		c.stats.Acks++
	case packet.PIDNak:
		c.stats.Naks++
	case packet.PIDStall:
		c.stats.Stalls++
	}
	return []byte{pid.Byte()}
}

func (c *Core) sendData(ep *Endpoint, payload []byte) []byte {
	b, err := packet.EncodeData(payload, ep.DataToggle())
	if err != nil {
		pkg.LogError(pkg.ComponentDevice, "encode data", "endpoint", ep.Address, "error", err)
		return c.handshake(packet.PIDStall)
	}
	c.inflight = ep
	c.inflightN = len(payload)
	return b
}

// acked commits the IN data the host just acknowledged.
func (c *Core) acked() {
	ep := c.inflight
	if ep == nil {
		return
	}
	c.inflight = nil
	ep.ToggleData()

	switch ep {
	case c.ep0In:
		switch c.stage {
		case stageDataIn:
			c.ctrlSent += c.inflightN
			if c.inflightN < MaxPacketSize0 || c.ctrlSent >= c.ctrlLen {
				c.stage = stageStatusOut
			}
		case stageStatusIn:
			c.stage = stageIdle
			c.statusComplete()
		}
	case c.bulkIn:
		if len(c.queue) > 0 {
			c.queue = c.queue[1:]
		}
	}
}

// statusComplete applies a request whose effect waits for its status stage.
func (c *Core) statusComplete() {
	if c.pendingAddress < 0 {
		return
	}
	c.address = uint8(c.pendingAddress)
	c.pendingAddress = -1
	if c.address == 0 {
		c.state = StateDefault
	} else if c.state == StateDefault {
		c.state = StateAddress
	}
	pkg.LogInfo(pkg.ComponentDevice, "address assigned", "address", c.address)
}

func (c *Core) setup(d packet.Data) []byte {
	if d.Kind != packet.PIDData0 || len(d.Payload) != packet.SetupSize {
		c.stats.Ignored++
		return nil
	}
	req, err := packet.ParseSetup(d.Payload)
	if err != nil {
		c.stats.Ignored++
		return nil
	}

	c.ep0In.SetDataToggle(true)
	c.ep0Out.SetDataToggle(true)
	c.ctrlData = nil
	c.ctrlSent = 0
	c.ctrlLen = int(req.Length)
	c.pendingAddress = -1

	data, err := c.handleSetup(req)
	switch {
	case err != nil:
		pkg.LogDebug(pkg.ComponentDevice, "request refused", "setup", req, "error", err)
		c.stage = stageStalled
	case req.IsDeviceToHost():
		if len(data) > c.ctrlLen {
			data = data[:c.ctrlLen]
		}
		c.ctrlData = append([]byte(nil), data...)
		c.stage = stageDataIn
	case req.Length > 0:
		pkg.LogDebug(pkg.ComponentDevice, "request data stage unsupported", "setup", req)
		c.stage = stageStalled
	default:
		c.stage = stageStatusIn
	}

	// SETUP is acknowledged even when the request will be stalled.
	return c.handshake(packet.PIDAck)
}

func (c *Core) in(ep uint8) []byte {
	switch ep {
	case 0:
		switch c.stage {
		case stageDataIn:
			chunk := c.ctrlData[c.ctrlSent:]
			if len(chunk) > MaxPacketSize0 {
				chunk = chunk[:MaxPacketSize0]
			}
			return c.sendData(c.ep0In, chunk)
		case stageStatusIn:
			return c.sendData(c.ep0In, nil)
		}
		return c.handshake(packet.PIDStall)

	case BulkEndpoint:
		if r := c.bulkRefusal(c.bulkIn); r != nil {
			return r
		}
		if len(c.queue) == 0 {
			return c.handshake(packet.PIDNak)
		}
		return c.sendData(c.bulkIn, c.queue[0])
	}

	c.stats.Ignored++
	return nil
}

func (c *Core) out(ep uint8, d packet.Data) []byte {
	switch ep {
	case 0:
		switch c.stage {
		case stageDataIn, stageStatusOut:
			c.stage = stageIdle
			return c.handshake(packet.PIDAck)
		}
		return c.handshake(packet.PIDStall)

	case BulkEndpoint:
		if r := c.bulkRefusal(c.bulkOut); r != nil {
			return r
		}
		if d.Toggle() != c.bulkOut.DataToggle() {
			c.stats.Duplicates++
			pkg.LogDebug(pkg.ComponentDevice, "duplicate data", "pid", d.Kind)
			return c.handshake(packet.PIDAck)
		}
		if len(c.queue) >= c.depth {
			return c.handshake(packet.PIDNak)
		}
		c.bulkOut.ToggleData()
		c.queue = append(c.queue, c.transform(d.Payload))
		return c.handshake(packet.PIDAck)
	}

	c.stats.Ignored++
	return nil
}

func (c *Core) ping(ep uint8) []byte {
	switch ep {
	case 0:
		return c.handshake(packet.PIDAck)
	case BulkEndpoint:
		if r := c.bulkRefusal(c.bulkOut); r != nil {
			return r
		}
		if len(c.queue) >= c.depth {
			return c.handshake(packet.PIDNak)
		}
		return c.handshake(packet.PIDAck)
	}
	c.stats.Ignored++
	return nil
}

// bulkRefusal returns STALL when a bulk endpoint cannot be used.
func (c *Core) bulkRefusal(ep *Endpoint) []byte {
	if ep == nil || c.state != StateConfigured {
		pkg.LogDebug(pkg.ComponentDevice, "bulk access refused", "error", pkg.ErrNotConfigured)
		return c.handshake(packet.PIDStall)
	}
	if ep.IsStalled() {
		return c.handshake(packet.PIDStall)
	}
	return nil
}
