// Package transport carries USB packets between a host harness and a
// simulated device as length-prefixed frames over a byte stream.
//
// Every frame is a 4-byte big-endian length followed by exactly that many
// bytes. Readers use [io.ReadFull] for both parts, so a frame split across
// several TCP segments is reassembled. Lengths above the configured limit
// are rejected before any body is read.
//
// [Conn.ReadFrame] takes a per-call timeout and distinguishes three
// outcomes besides data:
//
//   - [pkg.ErrTimeout]: no byte of a new frame arrived. The connection is
//     still usable.
//   - [pkg.ErrFrameTruncated]: the deadline or EOF hit inside a frame. The
//     stream cannot be resynchronized and the connection is marked broken.
//   - [pkg.ErrClosed]: the peer closed the connection between frames.
//
// [Conn.WriteFrames] encodes several frames into one buffer and writes it
// under a mutex, so a SOF/token/data burst reaches the peer atomically.
//
// The harness listens (default localhost:2443) and the device dials out,
// retrying with exponential backoff until the harness is up.
package transport
