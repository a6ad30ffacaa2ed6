package session

// State is the session state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "DISCONNECTED"
	}
}

// Outcome describes how a start request ended.
type Outcome int

const (
	// OutcomeConnected means the tunnel is up.
	OutcomeConnected Outcome = iota + 1
	// OutcomeToggledOff means a session was already active and was stopped
	// instead; the supplied configuration was not used.
	OutcomeToggledOff
	// OutcomeFailed means the tunnel could not be brought up.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConnected:
		return "connected"
	case OutcomeToggledOff:
		return "toggled_off"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the outcome as its string form.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// StartResult is returned by Machine.Start and Machine.Reconfigure.
type StartResult struct {
	Outcome  Outcome `json:"outcome"`
	TunnelID string  `json:"tunnel_id,omitempty"`
}
