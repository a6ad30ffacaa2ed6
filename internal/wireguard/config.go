package wireguard

import "errors"

// Config holds the configuration for the WireGuard backend.
// Config is passed as a constructor argument; no file I/O in this package.
type Config struct {
	// InterfaceName is the WireGuard network interface name. It doubles as
	// the tunnel handle name.
	// Default: "wgs0". Must not name an interface owned by another tool:
	// the backend deletes it before bring-up and on shutdown.
	InterfaceName string `yaml:"interface_name" envconfig:"INTERFACE_NAME"`

	// RouteTable is the routing table that receives the peer's allowed IPs.
	// Default: 51820
	RouteTable int `yaml:"route_table" envconfig:"ROUTE_TABLE"`

	// RulePriority is the priority of the first of the two policy rules
	// installed while the tunnel is up; the second uses RulePriority+1.
	// Default: 31000
	RulePriority int `yaml:"rule_priority" envconfig:"RULE_PRIORITY"`
}

// DefaultInterfaceName is the default WireGuard interface name.
const DefaultInterfaceName = "wgs0"

// DefaultRouteTable is the default routing table for tunnel routes.
const DefaultRouteTable = 51820

// DefaultRulePriority is the default policy rule priority.
const DefaultRulePriority = 31000

// FirewallMark marks the tunnel's own UDP traffic and traffic of excluded
// apps so that both bypass RouteTable.
const FirewallMark = 0xca6c

// MTU is the fixed interface MTU.
const MTU = 1420

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.InterfaceName == "" {
		c.InterfaceName = DefaultInterfaceName
	}
	if c.RouteTable == 0 {
		c.RouteTable = DefaultRouteTable
	}
	if c.RulePriority == 0 {
		c.RulePriority = DefaultRulePriority
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.InterfaceName == "" {
		return errors.New("wireguard: config: InterfaceName is required")
	}
	if len(c.InterfaceName) > 15 {
		return errors.New("wireguard: config: InterfaceName must be at most 15 characters")
	}
	// 253-255 are the kernel's default, main and local tables.
	if c.RouteTable <= 0 || (c.RouteTable >= 253 && c.RouteTable <= 255) {
		return errors.New("wireguard: config: RouteTable must be positive and not a reserved table")
	}
	if c.RulePriority <= 0 || c.RulePriority >= 32766 {
		return errors.New("wireguard: config: RulePriority must be between 1 and 32765")
	}
	return nil
}
