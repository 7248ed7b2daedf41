package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/jpillora/backoff"

	"github.com/liteluna/usblink/pkg"
)

// Listener accepts framed connections.
type Listener struct {
	ln   net.Listener
	opts Options
}

// Listen listens for TCP connections on addr.
func Listen(addr string, opts Options) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	pkg.LogInfo(pkg.ComponentTransport, "listening", "addr", ln.Addr())
	return &Listener{ln: ln, opts: opts}, nil
}

// Addr returns the listening address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Accept waits for one connection. Cancelling ctx closes the listener.
func (l *Listener) Accept(ctx context.Context) (*Conn, error) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			l.ln.Close()
		case <-done:
		}
	}()

	nc, err := l.ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, net.ErrClosed) {
			return nil, fmt.Errorf("accept: %w", pkg.ErrClosed)
		}
		return nil, fmt.Errorf("accept: %w", err)
	}
	setNoDelay(nc)
	c := New(nc, l.opts)
	pkg.LogInfo(pkg.ComponentTransport, "accepted", "id", c.ID(), "remote", nc.RemoteAddr())
	return c, nil
}

// Close stops listening.
func (l *Listener) Close() error {
	return l.ln.Close()
}

// DialOptions configures [Dial].
type DialOptions struct {
	Options

	// Backoff paces reconnection attempts. Nil uses DefaultBackoff.
	Backoff *backoff.Backoff

	// Attempts bounds the number of dials. Zero retries until ctx is done.
	Attempts int
}

// DefaultBackoff returns the reconnection pacing used when none is given.
func DefaultBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    50 * time.Millisecond,
		Max:    2 * time.Second,
		Factor: 2,
		Jitter: true,
	}
}

// Dial connects to a harness at addr, retrying with backoff until it
// answers, ctx is done or the attempts are spent.
func Dial(ctx context.Context, addr string, opts DialOptions) (*Conn, error) {
	b := opts.Backoff
	if b == nil {
		b = DefaultBackoff()
	}
	b.Reset()

	var d net.Dialer
	for attempt := 1; ; attempt++ {
		nc, err := d.DialContext(ctx, "tcp", addr)
		if err == nil {
			setNoDelay(nc)
			c := New(nc, opts.Options)
			pkg.LogInfo(pkg.ComponentTransport, "connected", "id", c.ID(), "addr", addr, "attempt", attempt)
			return c, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if opts.Attempts > 0 && attempt >= opts.Attempts {
			return nil, fmt.Errorf("dial %s after %d attempts: %w", addr, attempt, err)
		}

		wait := b.Duration()
		pkg.LogDebug(pkg.ComponentTransport, "dial failed", "addr", addr, "attempt", attempt, "retry", wait, "error", err)

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

// setNoDelay disables Nagle so small token frames are not held back.
func setNoDelay(nc net.Conn) {
	if tc, ok := nc.(*net.TCPConn); ok {
		tc.SetNoDelay(true)
	}
}
