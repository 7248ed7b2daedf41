package replay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/liteluna/usblink/pkg"
)

// FrameConn is the framed connection a replay runs over.
type FrameConn interface {
	ReadFrame(timeout time.Duration) ([]byte, error)
	WriteFrames(frames ...[]byte) error
}

// DefaultTimeout bounds the wait for each expected frame.
const DefaultTimeout = 2 * time.Second

// Mismatch describes one expected frame that did not arrive as recorded.
type Mismatch struct {
	Line     int
	Expected []byte
	Actual   []byte // Nil if nothing arrived
	Err      error  // Why nothing arrived, e.g. pkg.ErrTimeout
}

func (m Mismatch) String() string {
	if m.Err != nil {
		return fmt.Sprintf("line %d: expected %s: %v", m.Line, pkg.Hex(m.Expected), m.Err)
	}
	return fmt.Sprintf("line %d: expected %s, got %s", m.Line, pkg.Hex(m.Expected), pkg.Hex(m.Actual))
}

// Report summarizes a replay.
type Report struct {
	Sent       int
	Received   int
	Mismatches []Mismatch
}

// OK reports whether every expected frame matched.
func (r *Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Err returns nil for a clean replay, or an error wrapping pkg.ErrMismatch.
func (r *Report) Err() error {
	if r.OK() {
		return nil
	}
	return fmt.Errorf("%d of %d frames differ (first at line %d): %w",
		len(r.Mismatches), r.Received+r.timeouts(), r.Mismatches[0].Line, pkg.ErrMismatch)
}

func (r *Report) timeouts() int {
	n := 0
	for _, m := range r.Mismatches {
		if m.Err != nil {
			n++
		}
	}
	return n
}

// Replayer plays a transcript against a live peer.
type Replayer struct {
	// Timeout bounds the wait for each expected frame. Zero means
	// DefaultTimeout.
	Timeout time.Duration
}

// Run sends the transcript's h2d frames and checks its d2h frames.
// Consecutive h2d frames are written in one burst. The returned error is
// non-nil only for transport failures or cancellation; mismatches are in
// the report.
func (rp *Replayer) Run(ctx context.Context, conn FrameConn, t Transcript) (Report, error) {
	timeout := rp.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	var (
		report  Report
		pending [][]byte
	)
	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		if err := conn.WriteFrames(pending...); err != nil {
			return err
		}
		report.Sent += len(pending)
		pending = pending[:0]
		return nil
	}

	for _, e := range t.Entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if e.Dir == HostToDevice {
			pending = append(pending, e.Data)
			continue
		}
		if err := flush(); err != nil {
			return report, fmt.Errorf("line %d: send: %w", e.Line, err)
		}

		actual, err := conn.ReadFrame(timeout)
		switch {
		case errors.Is(err, pkg.ErrTimeout):
			m := Mismatch{Line: e.Line, Expected: e.Data, Err: err}
			pkg.LogWarn(pkg.ComponentReplay, "no response", "line", e.Line, "expected", pkg.Hex(e.Data))
			report.Mismatches = append(report.Mismatches, m)
			continue
		case err != nil:
			return report, fmt.Errorf("line %d: receive: %w", e.Line, err)
		}

		report.Received++
		if !bytes.Equal(actual, e.Data) {
			pkg.LogWarn(pkg.ComponentReplay, "mismatch",
				"line", e.Line,
				"expected", pkg.Hex(e.Data),
				"actual", pkg.Hex(actual))
			report.Mismatches = append(report.Mismatches, Mismatch{Line: e.Line, Expected: e.Data, Actual: actual})
			continue
		}
		pkg.LogDebug(pkg.ComponentReplay, "match", "line", e.Line, "data", pkg.Hex(actual))
	}

	if err := flush(); err != nil {
		return report, fmt.Errorf("send: %w", err)
	}

	pkg.LogInfo(pkg.ComponentReplay, "replay complete",
		"sent", report.Sent,
		"received", report.Received,
		"mismatches", len(report.Mismatches))
	return report, nil
}
