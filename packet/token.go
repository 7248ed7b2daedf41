package packet

import (
	"fmt"

	"github.com/liteluna/usblink/pkg"
)

// TokenInfo is the flattened view of a token or SOF packet.
type TokenInfo struct {
	PID      PID
	Address  uint8
	Endpoint uint8
	Frame    uint16 // SOF only
}

// ParseToken decodes a token or SOF packet.
func ParseToken(b []byte) (TokenInfo, error) {
	p, err := Decode(b)
	if err != nil {
		return TokenInfo{}, err
	}
	switch p := p.(type) {
	case SOF:
		return TokenInfo{PID: PIDSOF, Frame: p.Frame}, nil
	case Token:
		return TokenInfo{PID: p.Kind, Address: p.Address, Endpoint: p.Endpoint}, nil
	}
	return TokenInfo{}, fmt.Errorf("parse token %v: %w", p.PID(), pkg.ErrUnexpectedPID)
}

// IsSOF reports whether the token is a start-of-frame.
func (t TokenInfo) IsSOF() bool { return t.PID == PIDSOF }

// IsSetup reports whether the token is a SETUP.
func (t TokenInfo) IsSetup() bool { return t.PID == PIDSetup }

// IsIn reports whether the token is an IN.
func (t TokenInfo) IsIn() bool { return t.PID == PIDIn }

// IsOut reports whether the token is an OUT.
func (t TokenInfo) IsOut() bool { return t.PID == PIDOut }

// IsPing reports whether the token is a PING.
func (t TokenInfo) IsPing() bool { return t.PID == PIDPing }
