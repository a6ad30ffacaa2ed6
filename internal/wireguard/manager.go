package wireguard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrExclusionUnsupported is returned when excluded apps are requested but
// the Manager was built without an Excluder.
var ErrExclusionUnsupported = errors.New("wireguard: excluded apps requested but no excluder configured")

// step is one named stage of a bring-up.
type step struct {
	name string
	fn   func() error
}

// Manager implements Backend on top of a WGController. A failed bring-up is
// rolled back so that no partial interface, route or rule survives it.
type Manager struct {
	ctrl     WGController
	excluder Excluder
	cfg      Config
	logger   *slog.Logger

	// mu serializes bring-up and teardown of the interface.
	mu sync.Mutex
}

// NewManager creates a new Manager. Config defaults are applied automatically.
// excluder may be nil, in which case configurations with excluded apps fail.
func NewManager(ctrl WGController, excluder Excluder, cfg Config, logger *slog.Logger) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		ctrl:     ctrl,
		excluder: excluder,
		cfg:      cfg,
		logger:   logger,
	}
}

// SetState implements Backend.
func (m *Manager) SetState(ctx context.Context, t *Tunnel, desired State, cfg *NativeConfig) (State, error) {
	if t == nil {
		return StateDown, errors.New("wireguard: set state: nil tunnel")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch desired {
	case StateUp:
		if cfg == nil {
			return StateDown, errors.New("wireguard: set state: config required to bring tunnel up")
		}
		if err := cfg.Validate(); err != nil {
			return StateDown, fmt.Errorf("wireguard: set state: %w", err)
		}
		if err := m.up(ctx, t.Name(), cfg); err != nil {
			if rbErr := m.down(t.Name()); rbErr != nil {
				m.logger.Error("rollback after failed bring-up incomplete",
					"component", "wireguard",
					"interface", t.Name(),
					"error", rbErr,
				)
			}
			return StateDown, fmt.Errorf("wireguard: set state up: %w", err)
		}
		return StateUp, nil

	case StateDown:
		if err := m.down(t.Name()); err != nil {
			return m.observe(t.Name()), fmt.Errorf("wireguard: set state down: %w", err)
		}
		return StateDown, nil

	default:
		return StateDown, fmt.Errorf("wireguard: set state: unknown state %d", desired)
	}
}

// GetState implements Backend. An interface that exists but is not up is
// reported as down.
func (m *Manager) GetState(_ context.Context, t *Tunnel) (State, error) {
	if t == nil {
		return StateDown, errors.New("wireguard: get state: nil tunnel")
	}
	exists, up, err := m.ctrl.InterfaceState(t.Name())
	if err != nil {
		return StateDown, fmt.Errorf("wireguard: get state: %w", err)
	}
	if exists && up {
		return StateUp, nil
	}
	return StateDown, nil
}

func (m *Manager) up(ctx context.Context, name string, cfg *NativeConfig) error {
	if len(cfg.Interface.ExcludedApps) > 0 && m.excluder == nil {
		return ErrExclusionUnsupported
	}

	// A leftover interface from a crashed run would make CreateInterface fail.
	if err := m.ctrl.DeleteInterface(name); err != nil {
		return err
	}

	steps := []step{
		{"create interface", func() error {
			return m.ctrl.CreateInterface(name, cfg.Interface.PrivateKey, cfg.Interface.ListenPort, FirewallMark)
		}},
		{"configure address", func() error { return m.ctrl.ConfigureAddress(name, cfg.Interface.Address) }},
		{"set mtu", func() error { return m.ctrl.SetMTU(name, cfg.Interface.MTU) }},
		{"add peer", func() error { return m.ctrl.AddPeer(name, cfg.Peer) }},
		{"set interface up", func() error { return m.ctrl.SetInterfaceUp(name) }},
		{"add routes", func() error { return m.ctrl.AddRoutes(name, m.cfg.RouteTable, cfg.Peer.AllowedIPs) }},
		{"add policy rules", func() error { return m.ctrl.AddPolicyRules(m.cfg.RouteTable, m.cfg.RulePriority) }},
	}
	if len(cfg.Interface.ExcludedApps) > 0 {
		steps = append(steps, step{"exclude apps", func() error {
			return m.excluder.Apply(cfg.Interface.ExcludedApps, FirewallMark)
		}})
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.fn(); err != nil {
			return fmt.Errorf("%s: %w", s.name, err)
		}
	}

	m.logger.Info("tunnel up",
		"component", "wireguard",
		"interface", name,
		"address", cfg.Interface.Address,
		"listen_port", cfg.Interface.ListenPort,
		"endpoint", cfg.Peer.Endpoint,
		"allowed_ips", len(cfg.Peer.AllowedIPs),
		"excluded_apps", len(cfg.Interface.ExcludedApps),
	)
	return nil
}

// down runs every teardown step even if earlier ones fail.
func (m *Manager) down(name string) error {
	var errs []error
	if m.excluder != nil {
		if err := m.excluder.Clear(); err != nil {
			errs = append(errs, fmt.Errorf("clear exclusions: %w", err))
		}
	}
	if err := m.ctrl.DeletePolicyRules(m.cfg.RouteTable, m.cfg.RulePriority); err != nil {
		errs = append(errs, fmt.Errorf("delete policy rules: %w", err))
	}
	// Routes in RouteTable go away with the interface.
	if err := m.ctrl.DeleteInterface(name); err != nil {
		errs = append(errs, fmt.Errorf("delete interface: %w", err))
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	m.logger.Info("tunnel down",
		"component", "wireguard",
		"interface", name,
	)
	return nil
}

func (m *Manager) observe(name string) State {
	exists, up, err := m.ctrl.InterfaceState(name)
	if err == nil && exists && up {
		return StateUp
	}
	return StateDown
}
