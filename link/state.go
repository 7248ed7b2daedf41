package link

// State is a state of the chirp handshake.
type State int

// Handshake states.
const (
	StateReset State = iota
	StateFS
	StateGetChirp
	StatePreSendK
	StateSendK
	StatePreSendJ
	StateSendJ
	StatePreHSActivated
	StateHSActivated
	StateToggleK
	StateToggleJ
)

// KJPairs is the number of device chirp K/J pairs sent before high speed.
const KJPairs = 3

var stateNames = [...]string{
	StateReset:          "RESET",
	StateFS:             "FS",
	StateGetChirp:       "GET_CHIRP",
	StatePreSendK:       "PRE_SEND_K",
	StateSendK:          "SEND_K",
	StatePreSendJ:       "PRE_SEND_J",
	StateSendJ:          "SEND_J",
	StatePreHSActivated: "PRE_HS_ACTIVATED",
	StateHSActivated:    "HS_ACTIVATED",
	StateToggleK:        "TOGGLE_K",
	StateToggleJ:        "TOGGLE_J",
}

// String returns the state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Inputs are the signals the state table reads besides the timer.
type Inputs struct {
	TxValid bool // Transmit-valid from the link layer
	Toggles int  // Chirp K/J pairs completed so far
}

// Outputs are the signals the state table drives for one tick. Fields left
// zero take their default: SE0 on the line and the timer released.
type Outputs struct {
	LineState     LineState
	TimerWait     bool
	SetHSActive   bool
	ClearHSActive bool
	ResetToggles  bool
	IncToggles    bool
}

// Transition evaluates the handshake state table for one tick.
func Transition(state State, in Inputs, timer TimerStatus) (State, Outputs) {
	var out Outputs
	next := state

	switch state {
	case StateReset:
		out.LineState = LineSE0
		out.TimerWait = true
		out.ClearHSActive = true
		if timer.BusReset {
			next = StateFS
		}

	case StateFS:
		out.LineState = LineFSJ
		if in.TxValid {
			next = StateGetChirp
		}

	case StateGetChirp:
		out.LineState = LineFSJ
		if !in.TxValid {
			out.ResetToggles = true
			next = StatePreSendK
		}

	case StatePreSendK:
		next = StateSendK

	case StateSendK:
		out.LineState = LineHSK
		out.TimerWait = true
		if timer.Chirp {
			next = StatePreSendJ
		}

	case StatePreSendJ:
		next = StateSendJ

	case StateSendJ:
		out.LineState = LineHSJ
		out.TimerWait = true
		if timer.Chirp {
			out.IncToggles = true
			if in.Toggles+1 == KJPairs {
				next = StatePreHSActivated
			} else {
				next = StatePreSendK
			}
		}

	case StatePreHSActivated:
		next = StateHSActivated

	case StateHSActivated:
		out.LineState = LineHSJ
		out.TimerWait = true
		out.SetHSActive = true
		if timer.Toggle {
			next = StateToggleK
		}

	case StateToggleK:
		out.LineState = LineHSK
		next = StateToggleJ

	case StateToggleJ:
		out.LineState = LineHSJ
		next = StateHSActivated

	default:
		next = StateReset
	}

	return next, out
}
