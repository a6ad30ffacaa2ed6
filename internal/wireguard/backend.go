package wireguard

import (
	"context"

	"github.com/google/uuid"
)

// State is the backend-reported state of a tunnel.
type State int

const (
	StateDown State = iota
	StateUp
)

func (s State) String() string {
	switch s {
	case StateUp:
		return "UP"
	default:
		return "DOWN"
	}
}

// Tunnel is the opaque identity of the tunnel the backend operates on.
// Identity is by pointer; the ID exists for logs and status output.
type Tunnel struct {
	id   string
	name string
}

// NewTunnel returns a new tunnel handle with a random ID.
func NewTunnel(name string) *Tunnel {
	return &Tunnel{id: uuid.NewString(), name: name}
}

func (t *Tunnel) ID() string { return t.id }

// Name is the network interface name backing the tunnel.
func (t *Tunnel) Name() string { return t.name }

// Backend brings a tunnel up or down and reports its current state.
type Backend interface {
	// SetState drives t towards desired. cfg is required for StateUp and
	// ignored for StateDown. It returns the state reached.
	SetState(ctx context.Context, t *Tunnel, desired State, cfg *NativeConfig) (State, error)
	// GetState reports the state of t as observed on the system.
	GetState(ctx context.Context, t *Tunnel) (State, error)
}
