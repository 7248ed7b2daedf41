package host

import (
	"context"
	"fmt"

	"github.com/liteluna/usblink/packet"
	"github.com/liteluna/usblink/pkg"
)

// ControlTransfer runs a control transfer on endpoint 0 of addr. For a
// device-to-host request data receives up to req.Length bytes; otherwise
// data is the data stage, sent in max-packet chunks. It returns the number
// of data-stage bytes moved.
func (h *Host) ControlTransfer(ctx context.Context, addr uint8, req packet.SetupPacket, data []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if req.IsDeviceToHost() && len(data) < int(req.Length) {
		return 0, fmt.Errorf("%v: buffer %d bytes: %w", req, len(data), pkg.ErrInvalidParameter)
	}

	if err := h.setup(addr, req); err != nil {
		return 0, fmt.Errorf("%v: setup: %w", req, err)
	}

	var toggle packet.Alternator
	packet.ControlToggles(&toggle)
	mps := h.maxPacketSize0(addr)

	n := 0
	if req.IsDeviceToHost() {
		for n < int(req.Length) {
			var chunk []byte
			err := h.retry(ctx, func() (err error) {
				chunk, err = h.in(addr, 0, &toggle)
				return err
			})
			if err != nil {
				return n, fmt.Errorf("%v: data: %w", req, err)
			}
			n += copy(data[n:], chunk)
			if len(chunk) < mps {
				break
			}
		}
		toggle.Set(packet.StatusToggle)
		if err := h.retry(ctx, func() error { return h.out(addr, 0, &toggle, nil) }); err != nil {
			return n, fmt.Errorf("%v: status: %w", req, err)
		}
	} else {
		for n < len(data) {
			chunk := data[n:min(n+mps, len(data))]
			if err := h.retry(ctx, func() error { return h.out(addr, 0, &toggle, chunk) }); err != nil {
				return n, fmt.Errorf("%v: data: %w", req, err)
			}
			n += len(chunk)
		}
		toggle.Set(packet.StatusToggle)
		var status []byte
		err := h.retry(ctx, func() (err error) {
			status, err = h.in(addr, 0, &toggle)
			return err
		})
		if err != nil {
			return n, fmt.Errorf("%v: status: %w", req, err)
		}
		if len(status) != 0 {
			return n, fmt.Errorf("%v: status stage carried %d bytes: %w", req, len(status), pkg.ErrProtocol)
		}
	}

	pkg.LogDebug(pkg.ComponentHost, "control transfer", "address", addr, "setup", req, "bytes", n)
	return n, nil
}

// BulkOut sends data to a bulk OUT endpoint in max-packet chunks. Empty
// data sends one zero-length packet.
func (h *Host) BulkOut(ctx context.Context, addr, ep uint8, data []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	toggle := h.session.Toggle(ep, packet.DirOut)
	n := 0
	for {
		chunk := data[n:min(n+DefaultMaxPacketSize, len(data))]
		if err := h.retry(ctx, func() error { return h.out(addr, ep, toggle, chunk) }); err != nil {
			return n, fmt.Errorf("endpoint %d OUT: %w", ep, err)
		}
		n += len(chunk)
		if n >= len(data) {
			return n, nil
		}
	}
}

// BulkIn reads from a bulk IN endpoint until a short packet or limit bytes.
// NAKs are retried per Options.
func (h *Host) BulkIn(ctx context.Context, addr, ep uint8, limit int) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	toggle := h.session.Toggle(ep, packet.DirIn)
	var buf []byte
	for {
		var chunk []byte
		err := h.retry(ctx, func() (err error) {
			chunk, err = h.in(addr, ep, toggle)
			return err
		})
		if err != nil {
			return buf, fmt.Errorf("endpoint %d IN: %w", ep, err)
		}
		buf = append(buf, chunk...)
		if len(chunk) < DefaultMaxPacketSize || len(buf) >= limit {
			return buf, nil
		}
	}
}

func (h *Host) maxPacketSize0(addr uint8) int {
	if mps, ok := h.mps0[addr]; ok {
		return mps
	}
	return DefaultMaxPacketSize0
}
