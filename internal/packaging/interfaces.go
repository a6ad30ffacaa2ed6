package packaging

// SystemdController abstracts systemd service management for testability.
// Methods that modify state must be idempotent.
type SystemdController interface {
	// IsAvailable reports whether systemctl is available.
	IsAvailable() bool
	DaemonReload() error
	Enable(service string) error
	Disable(service string) error
	Start(service string) error
	// Stop returns nil if the service is not running.
	Stop(service string) error
	IsActive(service string) bool
}

// RootChecker abstracts privilege checking for testability.
type RootChecker interface {
	IsRoot() bool
}
