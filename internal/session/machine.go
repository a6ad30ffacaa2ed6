package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/plexsphere/wgsession/internal/metrics"
	"github.com/plexsphere/wgsession/internal/notify"
	"github.com/plexsphere/wgsession/internal/tunnelconfig"
	"github.com/plexsphere/wgsession/internal/wireguard"
)

// Notifier receives state changes and telemetry. *notify.Bridge implements it.
type Notifier interface {
	OnStateChanged(state, duration, downloadRate, uploadRate string) notify.Event
	OnDisconnected() notify.Event
}

// TelemetrySink receives numeric telemetry. *metrics.Exporter implements it.
type TelemetrySink interface {
	SetState(v int)
	Observe(s metrics.Sample)
	ConnectFailed()
}

// Machine drives the single tunnel session through
// DISCONNECTED → CONNECTING → CONNECTED and back.
//
// Start, Stop, Reconfigure and Close are serialized. While CONNECTED a
// sampling goroutine ticks every interval; it is cancelled and joined before
// Stop returns. Every session gets a generation number and a tick publishes
// only while its generation is current.
type Machine struct {
	registry *Registry
	sampler  *metrics.Sampler
	notifier Notifier
	sink     TelemetrySink
	logger   *slog.Logger
	interval time.Duration

	// mu serializes transitions.
	mu    sync.Mutex
	state atomic.Int32

	// pubMu orders publishes against generation changes.
	pubMu sync.Mutex
	gen   atomic.Uint64

	active atomic.Bool
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMachine creates a Machine. sink may be nil.
func NewMachine(registry *Registry, reader metrics.CounterReader, notifier Notifier, sink TelemetrySink, logger *slog.Logger) *Machine {
	return &Machine{
		registry: registry,
		sampler:  metrics.NewSampler(reader, logger),
		notifier: notifier,
		sink:     sink,
		logger:   logger.With("component", "session"),
		interval: metrics.SampleInterval,
	}
}

// State returns the current state.
func (m *Machine) State() State { return State(m.state.Load()) }

// Registry returns the machine's registry.
func (m *Machine) Registry() *Registry { return m.registry }

// Start connects with cfg. If a session is already active it is stopped
// instead and the result is OutcomeToggledOff; cfg is not used.
func (m *Machine) Start(ctx context.Context, cfg tunnelconfig.TunnelConfig, excludedApps []string) (StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() != StateDisconnected {
		m.logger.Info("start while active, stopping instead", "state", m.State())
		err := m.stopLocked(ctx)
		return StartResult{Outcome: OutcomeToggledOff}, err
	}
	return m.startLocked(ctx, cfg, excludedApps)
}

// Reconfigure stops any active session and starts a new one with cfg.
// Errors from the stop are logged; the start proceeds regardless.
func (m *Machine) Reconfigure(ctx context.Context, cfg tunnelconfig.TunnelConfig, excludedApps []string) (StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.State() != StateDisconnected {
		if err := m.stopLocked(ctx); err != nil {
			m.logger.Warn("stop before reconfigure incomplete", "error", err)
		}
	}
	return m.startLocked(ctx, cfg, excludedApps)
}

// Stop tears the session down. It is idempotent: when the tunnel is already
// down no DOWN transition is requested and the same default broadcasts are
// emitted. All teardown steps run even if the backend fails.
func (m *Machine) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopLocked(ctx)
}

// Close stops the session, joins the sampling goroutine and then closes the
// notifier if it supports it.
func (m *Machine) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.stopLocked(ctx)
	if c, ok := m.notifier.(interface{ Close() error }); ok {
		if cerr := c.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

func (m *Machine) startLocked(ctx context.Context, cfg tunnelconfig.TunnelConfig, excludedApps []string) (StartResult, error) {
	if !cfg.Valid() {
		return StartResult{Outcome: OutcomeFailed}, fmt.Errorf("session: start: %w", tunnelconfig.ErrValidation)
	}

	backend, err := m.registry.Backend()
	if err != nil {
		m.logger.Error("start aborted", "error", err)
		return StartResult{Outcome: OutcomeFailed}, err
	}
	handle := m.registry.Handle()

	m.state.Store(int32(StateConnecting))
	m.publish(StateConnecting, metrics.Sample{})

	native, err := wireguard.NativeConfigFrom(cfg, excludedApps)
	if err == nil {
		var reached wireguard.State
		reached, err = backend.SetState(ctx, handle, wireguard.StateUp, native)
		if err == nil && reached != wireguard.StateUp {
			err = fmt.Errorf("backend reached %s", reached)
		}
	}
	if err != nil {
		m.state.Store(int32(StateDisconnected))
		if m.sink != nil {
			m.sink.ConnectFailed()
			m.sink.SetState(int(StateDisconnected))
		}
		m.notifier.OnDisconnected()
		m.logger.Error("connect failed", "tunnel_id", handle.ID(), "error", err)
		return StartResult{Outcome: OutcomeFailed}, &BackendOperationError{Op: "up", Err: err}
	}

	m.state.Store(int32(StateConnected))
	m.sampler.Prime(ctx)
	m.publish(StateConnected, metrics.Sample{})
	gen := m.gen.Add(1)
	m.startSampling(gen, backend, handle)

	m.logger.Info("session connected",
		"tunnel_id", handle.ID(),
		"interface", handle.Name(),
		"endpoint", cfg.Endpoint(),
	)
	return StartResult{Outcome: OutcomeConnected, TunnelID: handle.ID()}, nil
}

func (m *Machine) stopLocked(ctx context.Context) error {
	// Invalidate in-flight ticks before touching the backend.
	m.pubMu.Lock()
	m.gen.Add(1)
	m.pubMu.Unlock()

	var errs []error
	backend, err := m.registry.Backend()
	if err != nil {
		errs = append(errs, err)
	} else {
		handle := m.registry.Handle()
		st, gerr := backend.GetState(ctx, handle)
		if gerr != nil {
			errs = append(errs, &BackendOperationError{Op: "get state", Err: gerr})
		}
		// An unknown state is torn down too; DOWN is idempotent.
		if gerr != nil || st == wireguard.StateUp {
			if _, derr := backend.SetState(ctx, handle, wireguard.StateDown, nil); derr != nil {
				errs = append(errs, &BackendOperationError{Op: "down", Err: derr})
			}
		}
	}

	m.stopSampling()

	m.state.Store(int32(StateDisconnected))
	m.sampler.Reset()
	m.publish(StateDisconnected, m.sampler.Snapshot())
	m.notifier.OnDisconnected()

	err = errors.Join(errs...)
	if err != nil {
		m.logger.Error("stop incomplete", "error", err)
	} else {
		m.logger.Info("session stopped")
	}
	return err
}

func (m *Machine) startSampling(gen uint64, backend wireguard.Backend, handle *wireguard.Tunnel) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.cancel = cancel
	m.done = done
	m.active.Store(true)

	go m.sample(ctx, gen, backend, handle, done)
}

// stopSampling clears the activity flag, cancels the goroutine and waits
// for it to exit.
func (m *Machine) stopSampling() {
	m.active.Store(false)
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
	m.done = nil
}

func (m *Machine) sample(ctx context.Context, gen uint64, backend wireguard.Backend, handle *wireguard.Tunnel, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if !m.active.Load() {
			return
		}

		s := m.sampler.Tick(ctx)

		display := StateConnected
		st, err := backend.GetState(ctx, handle)
		if err != nil || st != wireguard.StateUp {
			display = StateDisconnected
			m.logger.Debug("backend reports tunnel not up", "backend_state", st, "error", err)
		}

		m.publishTick(gen, display, s)
	}
}

// publishTick publishes a sample only if gen is still the current session.
func (m *Machine) publishTick(gen uint64, display State, s metrics.Sample) {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	if m.gen.Load() != gen || m.State() != StateConnected {
		return
	}
	m.publishLocked(display, s)
}

func (m *Machine) publish(state State, s metrics.Sample) {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()
	m.publishLocked(state, s)
}

func (m *Machine) publishLocked(state State, s metrics.Sample) {
	m.notifier.OnStateChanged(
		state.String(),
		metrics.FormatDuration(s.UptimeSeconds),
		metrics.FormatDownload(s.RxDeltaBytes),
		metrics.FormatUpload(s.TxDeltaBytes),
	)
	if m.sink != nil {
		m.sink.SetState(int(state))
		m.sink.Observe(s)
	}
}
