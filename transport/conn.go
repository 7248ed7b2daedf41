package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liteluna/usblink/pkg"
)

// HeaderSize is the length prefix size in bytes.
const HeaderSize = 4

// DefaultMaxFrameSize bounds the body of a frame. A high-speed data packet
// is at most 515 bytes, so the default leaves ample room for harness
// traffic while rejecting garbage lengths.
const DefaultMaxFrameSize = 64 * 1024

// DefaultAddr is where harness tools listen.
const DefaultAddr = "localhost:2443"

// Options configures a [Conn].
type Options struct {
	// MaxFrameSize bounds frame bodies in both directions.
	// Zero means DefaultMaxFrameSize.
	MaxFrameSize uint32

	// WriteTimeout bounds each WriteFrames call. Zero means no deadline.
	WriteTimeout time.Duration

	// Metrics receives frame and byte counts. May be nil.
	Metrics *Metrics
}

func (o Options) maxFrameSize() uint32 {
	if o.MaxFrameSize == 0 {
		return DefaultMaxFrameSize
	}
	return o.MaxFrameSize
}

// Conn is a framed connection. Writes may come from any goroutine; reads
// must come from one.
type Conn struct {
	id   uuid.UUID
	nc   net.Conn
	opts Options

	wmu     sync.Mutex
	wbroken error // Set under wmu when a write stopped mid-frame

	header [HeaderSize]byte
	broken error
}

// New wraps an established stream.
func New(nc net.Conn, opts Options) *Conn {
	c := &Conn{
		id:   uuid.New(),
		nc:   nc,
		opts: opts,
	}
	pkg.LogDebug(pkg.ComponentTransport, "connection open",
		"id", c.id,
		"remote", nc.RemoteAddr())
	return c
}

// ID returns the connection's unique identifier.
func (c *Conn) ID() uuid.UUID {
	return c.id
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// Broken reports whether a previous read or write lost frame
// synchronization.
func (c *Conn) Broken() bool {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	return c.broken != nil || c.wbroken != nil
}

// Close closes the underlying stream.
func (c *Conn) Close() error {
	pkg.LogDebug(pkg.ComponentTransport, "connection close", "id", c.id)
	return c.nc.Close()
}

// ReadFrame reads one frame. A timeout of zero waits indefinitely.
func (c *Conn) ReadFrame(timeout time.Duration) ([]byte, error) {
	if c.broken != nil {
		return nil, c.broken
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if err := c.nc.SetReadDeadline(deadline); err != nil {
		return nil, c.fail(err)
	}

	n, err := io.ReadFull(c.nc, c.header[:])
	if err != nil {
		if n == 0 {
			switch {
			case isTimeout(err):
				c.opts.Metrics.timeout()
				return nil, pkg.ErrTimeout
			case isClosed(err):
				return nil, pkg.ErrClosed
			}
		}
		return nil, c.truncated(n, HeaderSize, err)
	}

	size := binary.BigEndian.Uint32(c.header[:])
	if size > c.opts.maxFrameSize() {
		c.broken = fmt.Errorf("frame length %d > %d: %w", size, c.opts.maxFrameSize(), pkg.ErrFrameTooLarge)
		pkg.LogError(pkg.ComponentTransport, "bad frame length", "id", c.id, "length", size)
		return nil, c.broken
	}

	body := make([]byte, size)
	if n, err := io.ReadFull(c.nc, body); err != nil {
		return nil, c.truncated(n, int(size), err)
	}

	c.opts.Metrics.received(len(body))
	if pkg.Enabled(slog.LevelDebug) {
		pkg.LogDebug(pkg.ComponentTransport, "rx frame", "id", c.id, "data", pkg.Hex(body))
	}
	return body, nil
}

// WriteFrame writes one frame.
func (c *Conn) WriteFrame(frame []byte) error {
	return c.WriteFrames(frame)
}

// WriteFrames writes frames as one contiguous write.
func (c *Conn) WriteFrames(frames ...[]byte) error {
	limit := c.opts.maxFrameSize()
	total := 0
	for _, f := range frames {
		if uint32(len(f)) > limit {
			return fmt.Errorf("write frame length %d > %d: %w", len(f), limit, pkg.ErrFrameTooLarge)
		}
		total += HeaderSize + len(f)
	}

	buf := make([]byte, 0, total)
	for _, f := range frames {
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(f)))
		buf = append(buf, f...)
	}

	c.wmu.Lock()
	defer c.wmu.Unlock()

	if c.wbroken != nil {
		return c.wbroken
	}
	if c.opts.WriteTimeout > 0 {
		if err := c.nc.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout)); err != nil {
			return c.fail(err)
		}
	}
	if n, err := c.nc.Write(buf); err != nil {
		if n > 0 {
			c.wbroken = fmt.Errorf("wrote %d of %d bytes: %v: %w", n, len(buf), err, pkg.ErrFrameTruncated)
			pkg.LogError(pkg.ComponentTransport, "write truncated", "id", c.id, "error", err)
			return c.wbroken
		}
		if isTimeout(err) {
			return fmt.Errorf("write: %w", pkg.ErrTimeout)
		}
		return c.fail(err)
	}

	for _, f := range frames {
		c.opts.Metrics.sent(len(f))
		if pkg.Enabled(slog.LevelDebug) {
			pkg.LogDebug(pkg.ComponentTransport, "tx frame", "id", c.id, "data", pkg.Hex(f))
		}
	}
	return nil
}

func (c *Conn) truncated(got, want int, err error) error {
	c.broken = fmt.Errorf("read %d of %d bytes: %v: %w", got, want, err, pkg.ErrFrameTruncated)
	pkg.LogError(pkg.ComponentTransport, "frame truncated", "id", c.id, "error", err)
	return c.broken
}

func (c *Conn) fail(err error) error {
	if isClosed(err) {
		return fmt.Errorf("%v: %w", err, pkg.ErrClosed)
	}
	return err
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}
