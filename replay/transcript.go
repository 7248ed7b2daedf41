package replay

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/liteluna/usblink/pkg"
)

// Direction is the flow of a transcript frame.
type Direction int

// Frame directions.
const (
	HostToDevice Direction = iota
	DeviceToHost
)

// String returns the transcript prefix of the direction.
func (d Direction) String() string {
	if d == DeviceToHost {
		return "d2h"
	}
	return "h2d"
}

// Line prefixes.
const (
	prefixH2D    = "h2d:"
	prefixH2DRaw = "h2d_raw:"
	prefixD2H    = "d2h:"
	prefixD2HRaw = "d2h_raw:"
	prefixNote   = "#"

	sessionTag = "usblink session"
)

// Entry is one frame of a transcript.
type Entry struct {
	Line int // 1-based source line
	Dir  Direction
	Data []byte
}

// Transcript is a parsed transcript.
type Transcript struct {
	Session uuid.UUID // From the header comment, if present
	Entries []Entry
}

// Sends returns the number of h2d entries.
func (t *Transcript) Sends() int {
	return t.count(HostToDevice)
}

// Expects returns the number of d2h entries.
func (t *Transcript) Expects() int {
	return t.count(DeviceToHost)
}

func (t *Transcript) count(d Direction) int {
	n := 0
	for _, e := range t.Entries {
		if e.Dir == d {
			n++
		}
	}
	return n
}

// WriteTo writes the transcript in its text form.
func (t *Transcript) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	if t.Session != uuid.Nil {
		fmt.Fprintf(&buf, "%s %s %s\n", prefixNote, sessionTag, t.Session)
	}
	for _, e := range t.Entries {
		fmt.Fprintf(&buf, "%s: %s\n", e.Dir, pkg.Hex(e.Data))
	}
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// Parser reads transcripts.
type Parser struct {
	// RawOnly accepts only the h2d_raw/d2h_raw spellings. Logs from
	// harnesses that echo every frame under both spellings replay
	// correctly with it set.
	RawOnly bool
}

// Parse reads a transcript accepting both prefix spellings.
func Parse(r io.Reader) (Transcript, error) {
	return Parser{}.Parse(r)
}

// Parse reads a transcript.
func (p Parser) Parse(r io.Reader) (Transcript, error) {
	var t Transcript
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, prefixNote) {
			p.parseNote(&t, text)
			continue
		}

		dir, rest, ok := p.split(text)
		if !ok {
			continue
		}
		data, err := parseHex(rest)
		if err != nil {
			return Transcript{}, fmt.Errorf("line %d: %v: %w", line, err, pkg.ErrInvalidTranscript)
		}
		t.Entries = append(t.Entries, Entry{Line: line, Dir: dir, Data: data})
	}
	if err := sc.Err(); err != nil {
		return Transcript{}, fmt.Errorf("read transcript: %w", err)
	}

	pkg.LogDebug(pkg.ComponentReplay, "transcript parsed",
		"session", t.Session,
		"sends", t.Sends(),
		"expects", t.Expects())
	return t, nil
}

func (p Parser) split(text string) (Direction, string, bool) {
	prefixes := []struct {
		prefix string
		dir    Direction
		raw    bool
	}{
		{prefixH2DRaw, HostToDevice, true},
		{prefixD2HRaw, DeviceToHost, true},
		{prefixH2D, HostToDevice, false},
		{prefixD2H, DeviceToHost, false},
	}
	for _, pf := range prefixes {
		if p.RawOnly && !pf.raw {
			continue
		}
		if rest, ok := strings.CutPrefix(text, pf.prefix); ok {
			return pf.dir, rest, true
		}
	}
	return 0, "", false
}

func (p Parser) parseNote(t *Transcript, text string) {
	rest := strings.TrimSpace(strings.TrimPrefix(text, prefixNote))
	id, ok := strings.CutPrefix(rest, sessionTag)
	if !ok || t.Session != uuid.Nil {
		return
	}
	if u, err := uuid.Parse(strings.TrimSpace(id)); err == nil {
		t.Session = u
	}
}

// parseHex decodes hex bytes that may be separated by whitespace.
func parseHex(s string) ([]byte, error) {
	joined := strings.Join(strings.Fields(s), "")
	data, err := hex.DecodeString(joined)
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}
