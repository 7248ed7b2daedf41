package packet

import (
	"encoding/binary"
	"fmt"

	"github.com/liteluna/usblink/pkg"
)

// Field limits.
const (
	MaxAddress    = 0x7F  // 7-bit device address
	MaxEndpoint   = 0x0F  // 4-bit endpoint number
	MaxFrame      = 0x7FF // 11-bit frame number
	FrameCount    = MaxFrame + 1
	MaxPayload    = 512 // High-speed bulk max packet size
	tokenFieldLen = 11
)

// Packet sizes in bytes, including the PID.
const (
	TokenSize     = 3
	HandshakeSize = 1
	DataOverhead  = 3 // PID + CRC16
)

// tokenField packs an 11-bit field with its CRC5.
func tokenField(field uint16) [2]byte {
	field &= MaxFrame
	v := field | uint16(CRC5(field, tokenFieldLen))<<11
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return b
}

// EncodeSOF encodes a start-of-frame packet. Only the low 11 bits of frame
// are sent.
func EncodeSOF(frame uint16) []byte {
	f := tokenField(frame)
	return []byte{PIDSOF.Byte(), f[0], f[1]}
}

// EncodeToken encodes a SETUP, IN, OUT or PING token.
func EncodeToken(pid PID, address, endpoint uint8) ([]byte, error) {
	switch pid {
	case PIDSetup, PIDIn, PIDOut, PIDPing:
	default:
		return nil, fmt.Errorf("encode token %v: %w", pid, pkg.ErrUnexpectedPID)
	}
	if address > MaxAddress {
		return nil, fmt.Errorf("encode token address %d: %w", address, pkg.ErrInvalidParameter)
	}
	if endpoint > MaxEndpoint {
		return nil, fmt.Errorf("encode token endpoint %d: %w", endpoint, pkg.ErrInvalidEndpoint)
	}
	f := tokenField(uint16(address) | uint16(endpoint)<<7)
	return []byte{pid.Byte(), f[0], f[1]}, nil
}

// DataPID returns DATA1 when toggle is set and DATA0 otherwise.
func DataPID(toggle bool) PID {
	if toggle {
		return PIDData1
	}
	return PIDData0
}

// EncodeData encodes a DATA0 or DATA1 packet.
func EncodeData(payload []byte, toggle bool) ([]byte, error) {
	return AppendData(make([]byte, 0, len(payload)+DataOverhead), payload, toggle)
}

// AppendData appends an encoded DATA0 or DATA1 packet to dst.
func AppendData(dst, payload []byte, toggle bool) ([]byte, error) {
	return appendData(dst, DataPID(toggle), payload)
}

func appendData(dst []byte, pid PID, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayload {
		return dst, fmt.Errorf("encode data %d bytes: %w", len(payload), pkg.ErrPayloadTooLarge)
	}
	dst = append(dst, pid.Byte())
	dst = append(dst, payload...)
	return binary.LittleEndian.AppendUint16(dst, CRC16(payload)), nil
}

// EncodeHandshake encodes an ACK, NAK, STALL or NYET packet.
func EncodeHandshake(pid PID) ([]byte, error) {
	if !pid.IsHandshake() {
		return nil, fmt.Errorf("encode handshake %v: %w", pid, pkg.ErrUnexpectedPID)
	}
	return []byte{pid.Byte()}, nil
}
