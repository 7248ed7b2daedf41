// Package host drives a USB device at packet level over a framed
// connection.
//
// A [Host] issues SOF, token, data and handshake packets, tracks frame
// numbers and data toggles, and builds control and bulk transfers from
// them. NAKed transactions are retried, optionally paced by a backoff.
//
//	h := host.New(conn, host.Options{})
//	info, err := h.Enumerate(ctx)
//	if err != nil {
//	    return err
//	}
//	n, err := h.BulkOut(ctx, info.Address, 1, payload)
//	reply, err := h.BulkIn(ctx, info.Address, 1, len(payload))
package host
