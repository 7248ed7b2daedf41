package link

// LineState is the differential line condition a UTMI PHY reports.
type LineState uint8

// Line states.
const (
	LineSE0     LineState = iota // Single-ended zero
	LineSquelch                  // High-speed squelch (encodes as SE0)
	LineFSJ                      // Full-speed J (idle)
	LineFSK                      // Full-speed K
	LineHSJ                      // High-speed J (chirp J)
	LineHSK                      // High-speed K (chirp K)
)

// UTMI LineState[1:0] encodings.
const (
	LineBitsSE0 = 0b00
	LineBitsJ   = 0b01
	LineBitsK   = 0b10
)

// Bits returns the two-bit UTMI encoding of the line state. Full-speed and
// high-speed J share one code, as do K states and SE0/squelch.
func (l LineState) Bits() uint8 {
	switch l {
	case LineFSJ, LineHSJ:
		return LineBitsJ
	case LineFSK, LineHSK:
		return LineBitsK
	default:
		return LineBitsSE0
	}
}

// String returns the name of the line state.
func (l LineState) String() string {
	switch l {
	case LineSE0:
		return "SE0"
	case LineSquelch:
		return "Squelch"
	case LineFSJ:
		return "FS_J"
	case LineFSK:
		return "FS_K"
	case LineHSJ:
		return "HS_J"
	case LineHSK:
		return "HS_K"
	default:
		return "unknown"
	}
}
