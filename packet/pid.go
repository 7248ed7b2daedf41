package packet

import (
	"fmt"

	"github.com/liteluna/usblink/pkg"
)

// PID is a 4-bit USB packet identifier.
type PID uint8

// Packet identifiers (USB 2.0 Table 8-1).
const (
	// Token
	PIDOut   PID = 0x1
	PIDIn    PID = 0x9
	PIDSOF   PID = 0x5
	PIDSetup PID = 0xD

	// Data
	PIDData0 PID = 0x3
	PIDData1 PID = 0xB
	PIDData2 PID = 0x7
	PIDMData PID = 0xF

	// Handshake
	PIDAck   PID = 0x2
	PIDNak   PID = 0xA
	PIDStall PID = 0xE
	PIDNyet  PID = 0x6

	// Special
	PIDPre   PID = 0xC // Also ERR in split transactions
	PIDSplit PID = 0x8
	PIDPing  PID = 0x4
)

// PIDErr shares its code with PIDPre.
const PIDErr = PIDPre

// Byte returns the on-wire PID byte: the nibble in the low four bits and
// its complement in the high four bits.
func (p PID) Byte() byte {
	n := byte(p) & 0x0F
	return n | (^n&0x0F)<<4
}

// ParsePIDByte extracts the PID from an on-wire PID byte.
func ParsePIDByte(b byte) (PID, error) {
	if b>>4 != ^b&0x0F {
		return 0, fmt.Errorf("pid byte %#02x: %w", b, pkg.ErrPIDCheck)
	}
	return PID(b & 0x0F), nil
}

// IsToken reports whether p starts a transaction.
func (p PID) IsToken() bool {
	switch p {
	case PIDOut, PIDIn, PIDSOF, PIDSetup, PIDPing:
		return true
	}
	return false
}

// IsData reports whether p is a data PID.
func (p PID) IsData() bool {
	switch p {
	case PIDData0, PIDData1, PIDData2, PIDMData:
		return true
	}
	return false
}

// IsHandshake reports whether p is a handshake PID.
func (p PID) IsHandshake() bool {
	switch p {
	case PIDAck, PIDNak, PIDStall, PIDNyet:
		return true
	}
	return false
}

// String returns the PID name.
func (p PID) String() string {
	switch p {
	case PIDOut:
		return "OUT"
	case PIDIn:
		return "IN"
	case PIDSOF:
		return "SOF"
	case PIDSetup:
		return "SETUP"
	case PIDData0:
		return "DATA0"
	case PIDData1:
		return "DATA1"
	case PIDData2:
		return "DATA2"
	case PIDMData:
		return "MDATA"
	case PIDAck:
		return "ACK"
	case PIDNak:
		return "NAK"
	case PIDStall:
		return "STALL"
	case PIDNyet:
		return "NYET"
	case PIDPre:
		return "PRE"
	case PIDSplit:
		return "SPLIT"
	case PIDPing:
		return "PING"
	default:
		return fmt.Sprintf("PID(%#x)", uint8(p))
	}
}
