package wireguard

// WGController abstracts OS-level WireGuard operations for testability.
type WGController interface {
	CreateInterface(name string, privateKey []byte, listenPort int, fwmark int) error
	// DeleteInterface deletes the named WireGuard interface.
	// Implementations must be idempotent: deleting a non-existent interface must return nil.
	DeleteInterface(name string) error
	ConfigureAddress(name string, address string) error
	SetInterfaceUp(name string) error
	SetMTU(name string, mtu int) error
	AddPeer(iface string, cfg PeerConfig) error
	// AddRoutes routes each CIDR through iface in the given table.
	// Routes that already exist are not an error.
	AddRoutes(iface string, table int, cidrs []string) error
	// AddPolicyRules installs the bypass rule (marked traffic → main table)
	// at priority and the catch-all rule (→ table) at priority+1.
	AddPolicyRules(table, priority int) error
	// DeletePolicyRules removes the rules installed by AddPolicyRules.
	// Implementations must be idempotent.
	DeletePolicyRules(table, priority int) error
	// InterfaceState reports whether the named WireGuard interface exists
	// and whether it is administratively up.
	InterfaceState(name string) (exists, up bool, err error)
}

// Excluder steers traffic of excluded applications around the tunnel by
// tagging it with a firewall mark.
type Excluder interface {
	Apply(apps []string, mark uint32) error
	// Clear removes all exclusions. Implementations must be idempotent.
	Clear() error
}
