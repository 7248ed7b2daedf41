package packet

import "sync"

// Alternator produces the DATA0/DATA1 toggle sequence of one endpoint.
// The zero value starts at DATA0.
type Alternator struct {
	next bool
}

// Next returns the current toggle and flips it: false, true, false, ...
func (a *Alternator) Next() bool {
	t := a.next
	a.next = !a.next
	return t
}

// Peek returns the toggle Next would return.
func (a *Alternator) Peek() bool {
	return a.next
}

// Set forces the toggle Next returns.
func (a *Alternator) Set(toggle bool) {
	a.next = toggle
}

// Reset returns the alternator to DATA0.
func (a *Alternator) Reset() {
	a.next = false
}

// ControlToggles resets a to the data stage of a control transfer: the
// SETUP packet is DATA0, so the first data-stage packet is DATA1.
func ControlToggles(a *Alternator) {
	a.Set(true)
}

// StatusToggle is the toggle of every control status stage.
const StatusToggle = true

// Direction is a transfer direction relative to the host.
type Direction uint8

// Transfer directions.
const (
	DirOut Direction = 0x00 // Host to device
	DirIn  Direction = 0x80 // Device to host
)

// String returns "OUT" or "IN".
func (d Direction) String() string {
	if d == DirIn {
		return "IN"
	}
	return "OUT"
}

type endpointKey struct {
	ep  uint8
	dir Direction
}

// Session holds the frame counter and data toggles of one host driver.
type Session struct {
	mu      sync.Mutex
	frame   uint16
	toggles map[endpointKey]*Alternator
}

// NewSession creates a session at frame 0 with every toggle at DATA0.
func NewSession() *Session {
	return &Session{toggles: make(map[endpointKey]*Alternator)}
}

// NextFrame returns the frame number of the next SOF. The counter wraps
// after 2047.
func (s *Session) NextFrame() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.frame
	s.frame = (s.frame + 1) % FrameCount
	return f
}

// Frame returns the frame number NextFrame would return.
func (s *Session) Frame() uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

// Toggle returns the alternator of an endpoint and direction. Endpoint
// numbers are masked to four bits.
func (s *Session) Toggle(ep uint8, dir Direction) *Alternator {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := endpointKey{ep & MaxEndpoint, dir}
	a, ok := s.toggles[k]
	if !ok {
		a = new(Alternator)
		s.toggles[k] = a
	}
	return a
}

// ResetToggles returns every alternator to DATA0, as SET_CONFIGURATION
// does on the device.
func (s *Session) ResetToggles() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.toggles {
		a.Reset()
	}
}
