package ctlapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/plexsphere/wgsession/internal/metrics"
	"github.com/plexsphere/wgsession/internal/notify"
	"github.com/plexsphere/wgsession/internal/session"
	"github.com/plexsphere/wgsession/internal/tunnelconfig"
	"github.com/plexsphere/wgsession/internal/wireguard"
)

const testKey = "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA="

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validFields() tunnelconfig.Fields {
	return tunnelconfig.Fields{
		InterfaceAddress: "10.8.0.2/32",
		PrivateKey:       testKey,
		ListenPort:       51820,
		PeerPublicKey:    testKey,
		AllowedIPs:       []string{"0.0.0.0/0"},
		Endpoint:         "203.0.113.1:51820",
	}
}

// fakeBackend records the desired states it was asked for.
type fakeBackend struct {
	mu      sync.Mutex
	state   wireguard.State
	desired []wireguard.State
	upErr   error
}

func (b *fakeBackend) SetState(_ context.Context, _ *wireguard.Tunnel, desired wireguard.State, _ *wireguard.NativeConfig) (wireguard.State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.desired = append(b.desired, desired)
	if desired == wireguard.StateUp && b.upErr != nil {
		return wireguard.StateDown, b.upErr
	}
	b.state = desired
	return desired, nil
}

func (b *fakeBackend) GetState(_ context.Context, _ *wireguard.Tunnel) (wireguard.State, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, nil
}

type fakeReadiness struct {
	mu         sync.Mutex
	checkErr   error
	requestErr error
	requests   int
}

func (r *fakeReadiness) Check(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.checkErr
}

func (r *fakeReadiness) Request(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests++
	if r.requestErr == nil {
		r.checkErr = nil
	}
	return r.requestErr
}

type staticReader struct{}

func (staticReader) ReadCounters(_ context.Context) (metrics.Counters, error) {
	return metrics.Counters{RxBytes: 1024, TxBytes: 512}, nil
}

// harness wires a real session manager to fakes at the edges.
type harness struct {
	backend   *fakeBackend
	readiness *fakeReadiness
	bridge    *notify.Bridge
	manager   *session.Manager
	handler   *Handler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := discardLogger()

	h := &harness{
		backend:   &fakeBackend{},
		readiness: &fakeReadiness{},
	}
	registry := session.NewRegistry("wgtest0")
	registry.Init(h.backend)

	broadcaster := notify.NewBroadcaster()
	h.bridge = notify.NewBridge(notify.NewLogIndicator(logger), broadcaster, logger)

	exporter := metrics.NewExporter()
	machine := session.NewMachine(registry, staticReader{}, h.bridge, exporter, logger)
	h.manager = session.NewManager(machine, h.readiness, session.Config{}, logger)
	h.bridge.Handle(notify.ActionDisconnect, func() { _, _ = h.manager.Stop() })

	h.handler = NewHandler(h.manager, broadcaster, h.bridge, exporter.Handler(), DefaultKeepAlive, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := h.manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			t.Errorf("manager.Run: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h
}

func (h *fakeBackend) desiredStates() []wireguard.State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]wireguard.State(nil), h.desired...)
}
