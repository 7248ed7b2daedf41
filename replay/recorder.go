package replay

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/liteluna/usblink/pkg"
)

// Recorder wraps a connection and writes every frame it carries to a
// transcript. It satisfies [FrameConn].
type Recorder struct {
	conn    FrameConn
	session uuid.UUID

	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewRecorder starts a transcript on w with a session header.
func NewRecorder(conn FrameConn, w io.Writer) (*Recorder, error) {
	r := &Recorder{conn: conn, session: uuid.New(), w: w}
	if _, err := fmt.Fprintf(w, "%s %s %s\n%s recorded %s\n",
		prefixNote, sessionTag, r.session,
		prefixNote, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return nil, fmt.Errorf("write transcript header: %w", err)
	}
	pkg.LogInfo(pkg.ComponentReplay, "recording", "session", r.session)
	return r, nil
}

// Session returns the id written in the transcript header.
func (r *Recorder) Session() uuid.UUID {
	return r.session
}

// ReadFrame reads from the wrapped connection and records the frame.
func (r *Recorder) ReadFrame(timeout time.Duration) ([]byte, error) {
	frame, err := r.conn.ReadFrame(timeout)
	if err != nil {
		return nil, err
	}
	r.record(DeviceToHost, frame)
	return frame, nil
}

// WriteFrames records the frames and writes them to the wrapped connection.
func (r *Recorder) WriteFrames(frames ...[]byte) error {
	if err := r.conn.WriteFrames(frames...); err != nil {
		return err
	}
	for _, f := range frames {
		r.record(HostToDevice, f)
	}
	return nil
}

// Err returns the first error writing the transcript.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *Recorder) record(d Direction, frame []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if _, err := fmt.Fprintf(r.w, "%s: %s\n", d, pkg.Hex(frame)); err != nil {
		r.err = err
		pkg.LogError(pkg.ComponentReplay, "transcript write failed", "session", r.session, "error", err)
	}
}
