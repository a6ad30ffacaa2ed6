// Package platform checks that the host can run a kernel WireGuard tunnel.
package platform

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
)

var (
	// ErrMissingCapability means the process lacks CAP_NET_ADMIN.
	ErrMissingCapability = errors.New("platform: CAP_NET_ADMIN required")
	// ErrNoKernelSupport means no kernel WireGuard implementation was found.
	ErrNoKernelSupport = errors.New("platform: kernel WireGuard support not available")
	// ErrUnsupported is returned on platforms without kernel WireGuard.
	ErrUnsupported = errors.New("platform: unsupported operating system")
)

// Readiness checks the two prerequisites for a tunnel: permission to manage
// network links and kernel WireGuard support.
type Readiness struct {
	logger *slog.Logger

	hasCapability func() (bool, error)
	moduleLoaded  func() bool
	probe         func() error

	// probed is set once a probe link was created successfully, which also
	// covers kernels with WireGuard built in.
	probed atomic.Bool
}

// NewReadiness returns a Readiness using the host's checks.
func NewReadiness(logger *slog.Logger) *Readiness {
	r := &Readiness{logger: logger}
	r.hasCapability = hasNetAdmin
	r.moduleLoaded = wireguardModuleLoaded
	r.probe = probeLink
	return r
}

// Check reports whether a tunnel can be brought up without side effects.
// All failed prerequisites are joined in the returned error.
func (r *Readiness) Check(_ context.Context) error {
	var errs []error

	ok, err := r.hasCapability()
	switch {
	case err != nil:
		errs = append(errs, err)
	case !ok:
		errs = append(errs, ErrMissingCapability)
	}

	if !r.probed.Load() && !r.moduleLoaded() {
		errs = append(errs, ErrNoKernelSupport)
	}
	return errors.Join(errs...)
}

// Request tries to satisfy the prerequisites. Creating a throwaway
// WireGuard link makes the kernel load the module on demand. The
// capability cannot be acquired at runtime and is only reported.
func (r *Readiness) Request(ctx context.Context) error {
	if err := r.Check(ctx); err == nil {
		return nil
	} else if errors.Is(err, ErrMissingCapability) {
		return err
	}

	if err := r.probe(); err != nil {
		r.logger.Warn("wireguard probe failed",
			"component", "platform",
			"error", err,
		)
		return errors.Join(ErrNoKernelSupport, err)
	}
	r.probed.Store(true)

	r.logger.Info("kernel wireguard support confirmed", "component", "platform")
	return r.Check(ctx)
}
