package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/plexsphere/wgsession/internal/tunnelconfig"
)

// Readiness checks and requests the platform prerequisites for a tunnel.
type Readiness interface {
	// Check returns nil when a tunnel can be brought up.
	Check(ctx context.Context) error
	// Request attempts to satisfy the prerequisites.
	Request(ctx context.Context) error
}

// Op names a lifecycle request.
type Op string

const (
	OpStart       Op = "start"
	OpStop        Op = "stop"
	OpReconfigure Op = "reconfigure"
)

// Result is the outcome of a lifecycle request.
type Result struct {
	Op    Op          `json:"op"`
	Start StartResult `json:"start"`
	Err   error       `json:"-"`
}

// Request is a queued lifecycle request.
type Request struct {
	op       Op
	cfg      tunnelconfig.TunnelConfig
	excluded []string

	done   chan struct{}
	result Result
}

func newRequest(op Op, cfg tunnelconfig.TunnelConfig, excluded []string) *Request {
	return &Request{
		op:       op,
		cfg:      cfg,
		excluded: append([]string(nil), excluded...),
		done:     make(chan struct{}),
	}
}

// Op returns the request's operation.
func (r *Request) Op() Op { return r.op }

// Done is closed once the request has been processed.
func (r *Request) Done() <-chan struct{} { return r.done }

// Wait blocks until the request has been processed or ctx is done.
func (r *Request) Wait(ctx context.Context) (Result, error) {
	select {
	case <-r.done:
		return r.result, nil
	case <-ctx.Done():
		return Result{Op: r.op}, ctx.Err()
	}
}

func (r *Request) finish(res Result) {
	res.Op = r.op
	r.result = res
	close(r.done)
}

// Manager is the control surface for the session. Lifecycle requests are
// queued and executed one at a time by Run; callers never block on the
// backend.
type Manager struct {
	machine   *Machine
	readiness Readiness
	cfg       Config
	logger    *slog.Logger

	queue chan *Request

	mu     sync.Mutex
	closed bool
}

// NewManager creates a new Manager. Config defaults are applied automatically.
func NewManager(machine *Machine, readiness Readiness, cfg Config, logger *slog.Logger) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		machine:   machine,
		readiness: readiness,
		cfg:       cfg,
		logger:    logger.With("component", "session"),
		queue:     make(chan *Request, cfg.QueueSize),
	}
}

// IsReady reports whether the platform pre-check passes.
func (m *Manager) IsReady(ctx context.Context) bool {
	return m.readiness.Check(ctx) == nil
}

// RequestReadiness asks the platform to satisfy the prerequisites.
func (m *Manager) RequestReadiness(ctx context.Context) error {
	if err := m.readiness.Request(ctx); err != nil {
		return fmt.Errorf("session: request readiness: %w", err)
	}
	return nil
}

// State returns the machine's current state.
func (m *Manager) State() State { return m.machine.State() }

// Registry returns the registry behind the session.
func (m *Manager) Registry() *Registry { return m.machine.Registry() }

// Start queues a start request. It fails synchronously with ErrNotReady when
// the platform pre-check fails and with a validation error when cfg was not
// produced by tunnelconfig.New.
func (m *Manager) Start(ctx context.Context, cfg tunnelconfig.TunnelConfig, excludedApps []string) (*Request, error) {
	if err := m.precheck(ctx, cfg); err != nil {
		return nil, err
	}
	return m.enqueue(newRequest(OpStart, cfg, excludedApps))
}

// Reconfigure queues a stop-then-start request with the same pre-checks as
// Start.
func (m *Manager) Reconfigure(ctx context.Context, cfg tunnelconfig.TunnelConfig, excludedApps []string) (*Request, error) {
	if err := m.precheck(ctx, cfg); err != nil {
		return nil, err
	}
	return m.enqueue(newRequest(OpReconfigure, cfg, excludedApps))
}

// Stop queues a stop request.
func (m *Manager) Stop() (*Request, error) {
	return m.enqueue(newRequest(OpStop, tunnelconfig.TunnelConfig{}, nil))
}

// Run executes queued requests until ctx is cancelled. On exit pending
// requests fail with ErrManagerClosed and the machine is closed, which
// stops the session and joins the sampling goroutine.
func (m *Manager) Run(ctx context.Context) error {
	m.logger.Info("session worker started")
	for {
		select {
		case <-ctx.Done():
			m.shutdown()
			return ctx.Err()
		case r := <-m.queue:
			m.process(ctx, r)
		}
	}
}

func (m *Manager) precheck(ctx context.Context, cfg tunnelconfig.TunnelConfig) error {
	if !cfg.Valid() {
		return fmt.Errorf("session: %w", tunnelconfig.ErrValidation)
	}
	if err := m.readiness.Check(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return nil
}

func (m *Manager) enqueue(r *Request) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}
	select {
	case m.queue <- r:
		return r, nil
	default:
		return nil, ErrQueueFull
	}
}

func (m *Manager) process(ctx context.Context, r *Request) {
	opCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.cfg.OpTimeout)
	defer cancel()

	var res Result
	switch r.op {
	case OpStart:
		res.Start, res.Err = m.machine.Start(opCtx, r.cfg, r.excluded)
	case OpReconfigure:
		res.Start, res.Err = m.machine.Reconfigure(opCtx, r.cfg, r.excluded)
	case OpStop:
		res.Err = m.machine.Stop(opCtx)
	}

	if res.Err != nil {
		m.logger.Warn("lifecycle request failed", "op", r.op, "error", res.Err)
	} else {
		m.logger.Debug("lifecycle request done", "op", r.op, "outcome", res.Start.Outcome)
	}
	r.finish(res)
}

func (m *Manager) shutdown() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

drain:
	for {
		select {
		case r := <-m.queue:
			r.finish(Result{Err: ErrManagerClosed})
		default:
			break drain
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.StopTimeout)
	defer cancel()
	if err := m.machine.Close(ctx); err != nil {
		m.logger.Error("session close incomplete", "error", err)
	}
	m.logger.Info("session worker stopped")
}
