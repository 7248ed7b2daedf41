package pkg

import "errors"

// USB protocol errors.
var (
	// ErrStall indicates an endpoint stall condition.
	ErrStall = errors.New("endpoint stalled")

	// ErrNAK indicates a NAK response (device busy).
	ErrNAK = errors.New("NAK received")

	// ErrProtocol indicates a protocol error.
	ErrProtocol = errors.New("protocol error")

	// ErrInvalidRequest indicates an invalid or unsupported request.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrInvalidEndpoint indicates an invalid endpoint address.
	ErrInvalidEndpoint = errors.New("invalid endpoint")

	// ErrNotConfigured indicates the device is not configured.
	ErrNotConfigured = errors.New("device not configured")

	// ErrDescriptorTooShort indicates the descriptor data is too short.
	ErrDescriptorTooShort = errors.New("descriptor too short")

	// ErrDescriptorTypeMismatch indicates the descriptor type does not match expected.
	ErrDescriptorTypeMismatch = errors.New("descriptor type mismatch")

	// ErrSetupPacketTooShort indicates the setup packet data is too short.
	ErrSetupPacketTooShort = errors.New("setup packet too short")

	// ErrInvalidParameter indicates an invalid parameter was provided.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Packet codec errors.
var (
	// ErrCRC indicates a CRC5 or CRC16 check failure.
	ErrCRC = errors.New("CRC error")

	// ErrPIDCheck indicates the PID check nibble is not the complement of the PID.
	ErrPIDCheck = errors.New("PID check failed")

	// ErrPacketTooShort indicates a packet shorter than its PID requires.
	ErrPacketTooShort = errors.New("packet too short")

	// ErrPacketTooLong indicates a fixed-size packet with trailing bytes.
	ErrPacketTooLong = errors.New("packet too long")

	// ErrPayloadTooLarge indicates a data payload above the maximum packet size.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrUnexpectedPID indicates a valid packet of the wrong kind for the
	// current transaction stage.
	ErrUnexpectedPID = errors.New("unexpected PID")

	// ErrToggleMismatch indicates a DATA0/DATA1 packet with the wrong parity.
	ErrToggleMismatch = errors.New("data toggle mismatch")
)

// Transport errors.
var (
	// ErrTimeout indicates no frame arrived before the read deadline. The
	// connection remains usable.
	ErrTimeout = errors.New("transfer timeout")

	// ErrFrameTooLarge indicates a length prefix above the frame size limit.
	// The stream cannot be resynchronized.
	ErrFrameTooLarge = errors.New("frame too large")

	// ErrFrameTruncated indicates the stream ended or timed out inside a frame.
	ErrFrameTruncated = errors.New("frame truncated")

	// ErrClosed indicates the peer closed the connection.
	ErrClosed = errors.New("connection closed")
)

// Harness errors.
var (
	// ErrMismatch indicates received bytes differ from the expected bytes.
	ErrMismatch = errors.New("response mismatch")

	// ErrInvalidTranscript indicates a malformed transcript line.
	ErrInvalidTranscript = errors.New("invalid transcript")

	// ErrUnknownBoard indicates a board profile name with no definition.
	ErrUnknownBoard = errors.New("unknown board profile")
)

// TransferStatus represents the completion status of a USB transaction.
type TransferStatus int

// Transfer status values.
const (
	TransferStatusSuccess        TransferStatus = iota // Transaction completed with ACK
	TransferStatusError                                // Transaction failed with error
	TransferStatusStall                                // Endpoint stalled
	TransferStatusNAK                                  // NAK received
	TransferStatusTimeout                              // No response before the deadline
	TransferStatusCRC                                  // Response failed its CRC check
	TransferStatusToggleMismatch                       // DATA PID parity was wrong
)

// String returns a string representation of the transfer status.
func (s TransferStatus) String() string {
	switch s {
	case TransferStatusSuccess:
		return "success"
	case TransferStatusError:
		return "error"
	case TransferStatusStall:
		return "stall"
	case TransferStatusNAK:
		return "nak"
	case TransferStatusTimeout:
		return "timeout"
	case TransferStatusCRC:
		return "crc"
	case TransferStatusToggleMismatch:
		return "toggle-mismatch"
	default:
		return "unknown"
	}
}

// Error returns the corresponding error for the transfer status.
func (s TransferStatus) Error() error {
	switch s {
	case TransferStatusSuccess:
		return nil
	case TransferStatusStall:
		return ErrStall
	case TransferStatusNAK:
		return ErrNAK
	case TransferStatusTimeout:
		return ErrTimeout
	case TransferStatusCRC:
		return ErrCRC
	case TransferStatusToggleMismatch:
		return ErrToggleMismatch
	default:
		return ErrProtocol
	}
}

// StatusOf maps an error back to a transfer status.
func StatusOf(err error) TransferStatus {
	switch {
	case err == nil:
		return TransferStatusSuccess
	case errors.Is(err, ErrStall):
		return TransferStatusStall
	case errors.Is(err, ErrNAK):
		return TransferStatusNAK
	case errors.Is(err, ErrTimeout):
		return TransferStatusTimeout
	case errors.Is(err, ErrCRC):
		return TransferStatusCRC
	case errors.Is(err, ErrToggleMismatch):
		return TransferStatusToggleMismatch
	default:
		return TransferStatusError
	}
}
