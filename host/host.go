package host

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"github.com/liteluna/usblink/packet"
	"github.com/liteluna/usblink/pkg"
)

// FrameConn carries whole USB packets to and from a device.
type FrameConn interface {
	ReadFrame(timeout time.Duration) ([]byte, error)
	WriteFrames(frames ...[]byte) error
}

// Options configures a [Host].
type Options struct {
	// Timeout bounds the wait for each device response. Zero means
	// DefaultTimeout.
	Timeout time.Duration

	// NAKRetries bounds how often a NAKed transaction is repeated. Zero
	// means DefaultNAKRetries.
	NAKRetries int

	// NAKBackoff paces NAK retries. Nil retries immediately.
	NAKBackoff *backoff.Backoff

	// Address is assigned during enumeration. Zero means DefaultAddress.
	Address uint8
}

// Stats counts transaction outcomes.
type Stats struct {
	Transactions uint64
	NAKs         uint64
	Stalls       uint64
	Timeouts     uint64
	Duplicates   uint64 // IN data repeated because our ACK was lost
}

// Host drives one device at packet level: it issues tokens, data and
// handshakes over a [FrameConn] and tracks frame numbers and toggles in a
// [packet.Session]. Transfers are serialized.
type Host struct {
	conn    FrameConn
	opts    Options
	session *packet.Session

	mu    sync.Mutex
	mps0  map[uint8]int
	stats Stats
}

// New creates a host on conn.
func New(conn FrameConn, opts Options) *Host {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.NAKRetries <= 0 {
		opts.NAKRetries = DefaultNAKRetries
	}
	if opts.Address == 0 {
		opts.Address = DefaultAddress
	}
	return &Host{
		conn:    conn,
		opts:    opts,
		session: packet.NewSession(),
		mps0:    make(map[uint8]int),
	}
}

// Session returns the frame and toggle state.
func (h *Host) Session() *packet.Session {
	return h.session
}

// Stats returns the transaction counters.
func (h *Host) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

var ackPacket = []byte{packet.PIDAck.Byte()}

func (h *Host) sof() []byte {
	return packet.EncodeSOF(h.session.NextFrame())
}

// response reads and decodes one device packet.
func (h *Host) response() (packet.Packet, error) {
	b, err := h.conn.ReadFrame(h.opts.Timeout)
	if err != nil {
		if errors.Is(err, pkg.ErrTimeout) {
			h.stats.Timeouts++
		}
		return nil, err
	}
	p, err := packet.Decode(b)
	if err != nil {
		return nil, fmt.Errorf("response % x: %w", b, err)
	}
	return p, nil
}

// handshake maps a handshake response to an error.
func handshake(p packet.Packet) error {
	if hs, ok := p.(packet.Handshake); ok {
		switch hs.Kind {
		case packet.PIDAck:
			return nil
		case packet.PIDNak:
			return pkg.ErrNAK
		case packet.PIDStall:
			return pkg.ErrStall
		}
	}
	return fmt.Errorf("%v: %w", p, pkg.ErrUnexpectedPID)
}

// retry repeats attempt while the device NAKs.
func (h *Host) retry(ctx context.Context, attempt func() error) error {
	var pace *backoff.Backoff
	if h.opts.NAKBackoff != nil {
		b := *h.opts.NAKBackoff
		b.Reset()
		pace = &b
	}

	for n := 0; ; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		h.stats.Transactions++
		err := attempt()
		switch {
		case errors.Is(err, pkg.ErrStall):
			h.stats.Stalls++
			return err
		case !errors.Is(err, pkg.ErrNAK):
			return err
		}

		h.stats.NAKs++
		if n+1 >= h.opts.NAKRetries {
			return fmt.Errorf("%d attempts: %w", n+1, err)
		}
		if pace == nil {
			continue
		}
		t := time.NewTimer(pace.Duration())
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		}
	}
}

// setup runs the SETUP stage of a control transfer. Two SOFs lead the
// SETUP token.
func (h *Host) setup(addr uint8, req packet.SetupPacket) error {
	tok, err := packet.EncodeToken(packet.PIDSetup, addr, 0)
	if err != nil {
		return err
	}
	data, err := packet.EncodeData(req.Bytes(), false)
	if err != nil {
		return err
	}
	if err := h.conn.WriteFrames(h.sof(), h.sof(), tok, data); err != nil {
		return err
	}
	p, err := h.response()
	if err != nil {
		return err
	}
	return handshake(p)
}

// in runs one IN transaction and acknowledges the data.
func (h *Host) in(addr, ep uint8, toggle *packet.Alternator) ([]byte, error) {
	tok, err := packet.EncodeToken(packet.PIDIn, addr, ep)
	if err != nil {
		return nil, err
	}

	// A repeat of the previous packet means our ACK was lost; the device
	// has seen this one and will advance.
	for range 2 {
		if err := h.conn.WriteFrames(tok); err != nil {
			return nil, err
		}
		p, err := h.response()
		if err != nil {
			return nil, err
		}
		d, ok := p.(packet.Data)
		if !ok {
			if err := handshake(p); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%v: %w", p, pkg.ErrUnexpectedPID)
		}
		if err := h.conn.WriteFrames(ackPacket); err != nil {
			return nil, err
		}
		if d.Toggle() == toggle.Peek() {
			toggle.Next()
			return d.Payload, nil
		}
		h.stats.Duplicates++
		pkg.LogDebug(pkg.ComponentHost, "duplicate data", "address", addr, "endpoint", ep, "pid", d.Kind)
	}
	return nil, fmt.Errorf("endpoint %d IN: %w", ep, pkg.ErrToggleMismatch)
}

// out runs one OUT transaction.
func (h *Host) out(addr, ep uint8, toggle *packet.Alternator, payload []byte) error {
	tok, err := packet.EncodeToken(packet.PIDOut, addr, ep)
	if err != nil {
		return err
	}
	data, err := packet.EncodeData(payload, toggle.Peek())
	if err != nil {
		return err
	}
	if err := h.conn.WriteFrames(tok, data); err != nil {
		return err
	}
	p, err := h.response()
	if err != nil {
		return err
	}
	if err := handshake(p); err != nil {
		return err
	}
	toggle.Next()
	return nil
}
