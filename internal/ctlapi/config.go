package ctlapi

import (
	"errors"
	"time"
)

// Config holds the configuration for the local control socket.
// Config is passed as a constructor argument; no file I/O in this package.
type Config struct {
	// SocketPath is the path to the Unix domain socket.
	// Default: /var/run/wgsession/ctl.sock
	SocketPath string `yaml:"socket_path" envconfig:"SOCKET_PATH"`

	// ShutdownTimeout is the maximum time to wait for a graceful shutdown.
	// Default: 5s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`

	// Group owns the socket. Members may call mutating routes.
	// Default: wgsession
	Group string `yaml:"group" envconfig:"GROUP"`

	// KeepAlive is the interval between comment lines on idle event streams.
	// Default: 15s
	KeepAlive time.Duration `yaml:"keep_alive" envconfig:"KEEP_ALIVE"`
}

// DefaultSocketPath is the default Unix domain socket path.
const DefaultSocketPath = "/var/run/wgsession/ctl.sock"

// DefaultShutdownTimeout is the default graceful shutdown timeout.
const DefaultShutdownTimeout = 5 * time.Second

// DefaultGroup is the default socket group.
const DefaultGroup = "wgsession"

// DefaultKeepAlive is the default event stream keep-alive interval.
const DefaultKeepAlive = 15 * time.Second

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.SocketPath == "" {
		c.SocketPath = DefaultSocketPath
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Group == "" {
		c.Group = DefaultGroup
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = DefaultKeepAlive
	}
}

// Validate checks that required fields are set and values are acceptable.
func (c *Config) Validate() error {
	if c.SocketPath == "" {
		return errors.New("ctlapi: config: SocketPath is required")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("ctlapi: config: ShutdownTimeout must be positive")
	}
	if c.KeepAlive <= 0 {
		return errors.New("ctlapi: config: KeepAlive must be positive")
	}
	return nil
}
