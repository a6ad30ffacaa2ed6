// Package packaging installs the wgsession daemon as a systemd service.
package packaging

import (
	"errors"
)

// InstallConfig holds the configuration for installing wgsession as a systemd service.
// InstallConfig is passed as a constructor argument; no file I/O in this package's config.
type InstallConfig struct {
	// BinaryPath is the path to install the wgsession binary.
	// Default: /usr/local/bin/wgsession
	BinaryPath string

	// ConfigDir is the configuration directory.
	// Default: /etc/wgsession
	ConfigDir string

	// DataDir is the data directory.
	// Default: /var/lib/wgsession
	DataDir string

	// RunDir holds the control socket.
	// Default: /var/run/wgsession
	RunDir string

	// UnitFilePath is the path for the systemd unit file.
	// Default: /etc/systemd/system/wgsession.service
	UnitFilePath string

	// ServiceName is the systemd service name.
	// Default: wgsession
	ServiceName string

	// InterfaceName is written into a freshly generated config.
	// Default: wgs0
	InterfaceName string

	// Start enables and starts the service after installing it.
	Start bool
}

const (
	DefaultBinaryPath    = "/usr/local/bin/wgsession"
	DefaultConfigDir     = "/etc/wgsession"
	DefaultDataDir       = "/var/lib/wgsession"
	DefaultRunDir        = "/var/run/wgsession"
	DefaultServiceName   = "wgsession"
	DefaultUnitFilePath  = "/etc/systemd/system/wgsession.service"
	DefaultInterfaceName = "wgs0"
)

// ApplyDefaults sets default values for zero-valued fields.
func (c *InstallConfig) ApplyDefaults() {
	if c.BinaryPath == "" {
		c.BinaryPath = DefaultBinaryPath
	}
	if c.ConfigDir == "" {
		c.ConfigDir = DefaultConfigDir
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.RunDir == "" {
		c.RunDir = DefaultRunDir
	}
	if c.ServiceName == "" {
		c.ServiceName = DefaultServiceName
	}
	if c.UnitFilePath == "" {
		c.UnitFilePath = DefaultUnitFilePath
	}
	if c.InterfaceName == "" {
		c.InterfaceName = DefaultInterfaceName
	}
}

// Validate checks that required fields are set.
func (c *InstallConfig) Validate() error {
	var errs []error
	for _, f := range []struct{ name, value string }{
		{"BinaryPath", c.BinaryPath},
		{"ConfigDir", c.ConfigDir},
		{"DataDir", c.DataDir},
		{"RunDir", c.RunDir},
		{"ServiceName", c.ServiceName},
		{"UnitFilePath", c.UnitFilePath},
	} {
		if f.value == "" {
			errs = append(errs, errors.New("packaging: config: "+f.name+" is required"))
		}
	}
	return errors.Join(errs...)
}
