// Package metrics samples tunnel telemetry and exports it to Prometheus.
package metrics

import (
	"fmt"
	"time"
)

// SampleInterval is the fixed interval between telemetry ticks.
const SampleInterval = time.Second

// Counter sources.
const (
	// SourceSystem reads host-wide cumulative counters over all interfaces.
	SourceSystem = "system"
	// SourceInterface reads the tunnel device's peer counters.
	SourceInterface = "interface"
)

// Config holds the configuration for telemetry sampling and export.
type Config struct {
	// CounterSource selects where cumulative rx/tx counters come from.
	// Default: "system".
	CounterSource string `yaml:"counter_source" envconfig:"COUNTER_SOURCE"`

	// Prometheus controls whether GET /metrics is served on the control socket.
	// Default: true (set by ApplyDefaults).
	Prometheus bool `yaml:"prometheus" envconfig:"PROMETHEUS"`
}

// ApplyDefaults sets default values for zero-valued fields.
// On a zero-valued Config, Prometheus defaults to true.
// To disable the exporter, set Prometheus=false after calling ApplyDefaults
// or set CounterSource explicitly.
func (c *Config) ApplyDefaults() {
	if c.CounterSource == "" {
		c.CounterSource = SourceSystem
		c.Prometheus = true
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	switch c.CounterSource {
	case SourceSystem, SourceInterface:
		return nil
	default:
		return fmt.Errorf("metrics: config: CounterSource must be %q or %q, got %q", SourceSystem, SourceInterface, c.CounterSource)
	}
}
