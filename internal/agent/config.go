// Package agent aggregates the daemon configuration.
package agent

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/plexsphere/wgsession/internal/ctlapi"
	"github.com/plexsphere/wgsession/internal/metrics"
	"github.com/plexsphere/wgsession/internal/notify"
	"github.com/plexsphere/wgsession/internal/session"
	"github.com/plexsphere/wgsession/internal/wireguard"
)

const (
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultDataDir is the default data directory.
	DefaultDataDir = "/var/lib/wgsession"

	// EnvPrefix prefixes every environment override, e.g.
	// WGSESSION_WIREGUARD_ROUTE_TABLE.
	EnvPrefix = "WGSESSION"
)

// Config is the top-level configuration for the wgsession daemon.
// It aggregates all subsystem configurations and is populated from
// a YAML configuration file via ParseConfig.
type Config struct {
	// LogLevel is the log level: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	// DataDir is the directory for persistent daemon data.
	// Default: /var/lib/wgsession
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR"`

	WireGuard wireguard.Config `yaml:"wireguard" envconfig:"WIREGUARD"`
	Metrics   metrics.Config   `yaml:"metrics" envconfig:"METRICS"`
	Ctl       ctlapi.Config    `yaml:"ctl" envconfig:"CTL"`
	Notify    notify.Config    `yaml:"notify" envconfig:"NOTIFY"`
	Session   session.Config   `yaml:"session" envconfig:"SESSION"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	c.WireGuard.ApplyDefaults()
	c.Metrics.ApplyDefaults()
	c.Ctl.ApplyDefaults()
	c.Notify.ApplyDefaults(c.DataDir)
	c.Session.ApplyDefaults()
}

// Validate checks that required fields are set and values are acceptable.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("agent: config: invalid log_level %q", c.LogLevel)
	}
	if c.DataDir == "" {
		return fmt.Errorf("agent: config: data_dir is required")
	}
	if err := c.WireGuard.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Ctl.Validate(); err != nil {
		return err
	}
	if err := c.Notify.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return nil
}

// ParseConfig reads a YAML configuration file, applies WGSESSION_*
// environment overrides, then defaults, and validates the result.
// A missing file is not an error when allowMissing is set; the daemon then
// runs on environment and defaults alone.
func ParseConfig(path string, allowMissing bool) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("agent: config: parse %s: %w", path, err)
		}
	case allowMissing && os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("agent: config: read %s: %w", path, err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("agent: config: environment: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
