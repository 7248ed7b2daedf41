package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/liteluna/usblink/pkg"
)

// Packet is a decoded USB packet: one of [SOF], [Token], [Data] or
// [Handshake].
type Packet interface {
	// PID returns the packet identifier.
	PID() PID
	// Bytes returns the on-wire encoding.
	Bytes() []byte
	fmt.Stringer
}

// SOF is a start-of-frame packet.
type SOF struct {
	Frame uint16
}

// PID returns PIDSOF.
func (SOF) PID() PID { return PIDSOF }

// Bytes returns the encoded packet.
func (s SOF) Bytes() []byte { return EncodeSOF(s.Frame) }

func (s SOF) String() string { return fmt.Sprintf("SOF[%d]", s.Frame) }

// Token is a SETUP, IN, OUT or PING token.
type Token struct {
	Kind     PID
	Address  uint8
	Endpoint uint8
}

// PID returns the token kind.
func (t Token) PID() PID { return t.Kind }

// Bytes returns the encoded packet, or nil if a field is out of range.
func (t Token) Bytes() []byte {
	b, err := EncodeToken(t.Kind, t.Address, t.Endpoint)
	if err != nil {
		return nil
	}
	return b
}

func (t Token) String() string {
	return fmt.Sprintf("%v[%d.%d]", t.Kind, t.Address, t.Endpoint)
}

// Data is a data packet.
type Data struct {
	Kind    PID
	Payload []byte
}

// PID returns the data PID.
func (d Data) PID() PID { return d.Kind }

// Toggle reports whether the packet is DATA1.
func (d Data) Toggle() bool { return d.Kind == PIDData1 }

// Bytes returns the encoded packet, or nil if the payload exceeds
// MaxPayload. The Kind is written as is.
func (d Data) Bytes() []byte {
	b, err := appendData(make([]byte, 0, len(d.Payload)+DataOverhead), d.Kind, d.Payload)
	if err != nil {
		return nil
	}
	return b
}

func (d Data) String() string {
	return fmt.Sprintf("%v[%d bytes]", d.Kind, len(d.Payload))
}

// Handshake is an ACK, NAK, STALL or NYET packet.
type Handshake struct {
	Kind PID
}

// PID returns the handshake kind.
func (h Handshake) PID() PID { return h.Kind }

// Bytes returns the encoded packet.
func (h Handshake) Bytes() []byte { return []byte{h.Kind.Byte()} }

func (h Handshake) String() string { return h.Kind.String() }

// Decode parses one packet, checking its PID, length and CRC.
func Decode(b []byte) (Packet, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("decode: %w", pkg.ErrPacketTooShort)
	}
	pid, err := ParsePIDByte(b[0])
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	switch {
	case pid.IsToken():
		if err := checkSize(pid, len(b), TokenSize); err != nil {
			return nil, err
		}
		v := binary.LittleEndian.Uint16(b[1:3])
		field := v & MaxFrame
		if uint8(v>>11) != CRC5(field, tokenFieldLen) {
			return nil, fmt.Errorf("decode %v: %w", pid, pkg.ErrCRC)
		}
		if pid == PIDSOF {
			return SOF{Frame: field}, nil
		}
		return Token{Kind: pid, Address: uint8(field & MaxAddress), Endpoint: uint8(field >> 7)}, nil

	case pid.IsData():
		if len(b) < DataOverhead {
			return nil, fmt.Errorf("decode %v: %d bytes: %w", pid, len(b), pkg.ErrPacketTooShort)
		}
		if len(b)-DataOverhead > MaxPayload {
			return nil, fmt.Errorf("decode %v: %w", pid, pkg.ErrPayloadTooLarge)
		}
		if !checkCRC16(b[1:]) {
			return nil, fmt.Errorf("decode %v: %w", pid, pkg.ErrCRC)
		}
		payload := make([]byte, len(b)-DataOverhead)
		copy(payload, b[1:len(b)-2])
		return Data{Kind: pid, Payload: payload}, nil

	case pid.IsHandshake():
		if err := checkSize(pid, len(b), HandshakeSize); err != nil {
			return nil, err
		}
		return Handshake{Kind: pid}, nil
	}

	return nil, fmt.Errorf("decode %v: %w", pid, pkg.ErrUnexpectedPID)
}

// checkSize compares the length of a fixed-size packet against size.
func checkSize(pid PID, n, size int) error {
	switch {
	case n < size:
		return fmt.Errorf("decode %v: %d bytes: %w", pid, n, pkg.ErrPacketTooShort)
	case n > size:
		return fmt.Errorf("decode %v: %d bytes: %w", pid, n, pkg.ErrPacketTooLong)
	}
	return nil
}
