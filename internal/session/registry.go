// Package session owns the single tunnel session: the registry holding the
// backend and tunnel handle, the state machine driving connect and
// disconnect, and the manager that serializes lifecycle requests.
package session

import (
	"sync"
	"sync/atomic"

	"github.com/plexsphere/wgsession/internal/wireguard"
)

// Registry holds the backend capability and the tunnel handle for the
// lifetime of the process. There is exactly one handle per Registry.
type Registry struct {
	name string

	mu      sync.Mutex
	backend wireguard.Backend
	handle  atomic.Pointer[wireguard.Tunnel]
}

// NewRegistry returns a Registry whose handle will be named tunnelName.
func NewRegistry(tunnelName string) *Registry {
	return &Registry{name: tunnelName}
}

// Init installs the backend. Calling Init again replaces it.
func (r *Registry) Init(b wireguard.Backend) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend = b
}

// Shutdown releases the backend. The handle survives so that a later Init
// keeps operating on the same tunnel.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend = nil
}

// Backend returns the installed backend or ErrUninitializedBackend.
func (r *Registry) Backend() (wireguard.Backend, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backend == nil {
		return nil, ErrUninitializedBackend
	}
	return r.backend, nil
}

// Handle returns the tunnel handle, creating it on first use. Concurrent
// callers all observe the same pointer.
func (r *Registry) Handle() *wireguard.Tunnel {
	if h := r.handle.Load(); h != nil {
		return h
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if h := r.handle.Load(); h != nil {
		return h
	}
	h := wireguard.NewTunnel(r.name)
	r.handle.Store(h)
	return h
}
