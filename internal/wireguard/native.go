package wireguard

import (
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/plexsphere/wgsession/internal/tunnelconfig"
)

// InterfaceConfig is the interface block of a NativeConfig.
type InterfaceConfig struct {
	Address      string // CIDR
	PrivateKey   []byte // never logged
	ListenPort   int
	ExcludedApps []string
	MTU          int
}

// PeerConfig holds the WireGuard-native configuration for the single peer.
type PeerConfig struct {
	PublicKey  []byte
	Endpoint   string
	AllowedIPs []string // CIDR
}

// NativeConfig is the backend's configuration shape: one interface block and
// one peer block.
type NativeConfig struct {
	Interface InterfaceConfig
	Peer      PeerConfig
}

// NativeConfigFrom translates a validated tunnel configuration into the
// backend shape. Bare addresses become /32 prefixes and the MTU is fixed.
func NativeConfigFrom(cfg tunnelconfig.TunnelConfig, excludedApps []string) (*NativeConfig, error) {
	if !cfg.Valid() {
		return nil, errors.New("wireguard: native config: tunnel config was not validated")
	}

	priv, err := tunnelconfig.DecodeKey(cfg.PrivateKey())
	if err != nil {
		return nil, fmt.Errorf("wireguard: native config: private key: %w", err)
	}
	pub, err := tunnelconfig.DecodeKey(cfg.PeerPublicKey())
	if err != nil {
		return nil, fmt.Errorf("wireguard: native config: peer public key: %w", err)
	}

	addr, err := toCIDR(cfg.InterfaceAddress())
	if err != nil {
		return nil, fmt.Errorf("wireguard: native config: address: %w", err)
	}

	allowed := make([]string, 0, len(cfg.AllowedIPs()))
	for _, ip := range cfg.AllowedIPs() {
		cidr, err := toCIDR(strings.TrimSpace(ip))
		if err != nil {
			return nil, fmt.Errorf("wireguard: native config: allowed IP: %w", err)
		}
		allowed = append(allowed, cidr)
	}

	return &NativeConfig{
		Interface: InterfaceConfig{
			Address:      addr,
			PrivateKey:   priv,
			ListenPort:   cfg.ListenPort(),
			ExcludedApps: append([]string(nil), excludedApps...),
			MTU:          MTU,
		},
		Peer: PeerConfig{
			PublicKey:  pub,
			Endpoint:   cfg.Endpoint(),
			AllowedIPs: allowed,
		},
	}, nil
}

// Validate checks the invariants the controller relies on.
func (c *NativeConfig) Validate() error {
	if len(c.Interface.PrivateKey) != 32 {
		return errors.New("wireguard: native config: private key must be 32 bytes")
	}
	if len(c.Peer.PublicKey) != 32 {
		return errors.New("wireguard: native config: peer public key must be 32 bytes")
	}
	if _, err := netip.ParsePrefix(c.Interface.Address); err != nil {
		return fmt.Errorf("wireguard: native config: address: %w", err)
	}
	if len(c.Peer.AllowedIPs) == 0 {
		return errors.New("wireguard: native config: peer needs at least one allowed IP")
	}
	if c.Interface.MTU <= 0 {
		return errors.New("wireguard: native config: MTU must be positive")
	}
	return nil
}

// toCIDR normalizes "a.b.c.d" to "a.b.c.d/32"; a "/N" suffix is kept.
// Octets may carry leading zeros, which netip rejects, so they are parsed here.
func toCIDR(s string) (string, error) {
	host, prefix, hasPrefix := strings.Cut(s, "/")
	parts := strings.Split(host, ".")
	if len(parts) != 4 {
		return "", fmt.Errorf("%q is not a dotted-quad IPv4 address", s)
	}
	var octets [4]byte
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return "", fmt.Errorf("%q is not a dotted-quad IPv4 address", s)
		}
		octets[i] = byte(n)
	}
	bits := 32
	if hasPrefix {
		n, err := strconv.Atoi(prefix)
		if err != nil || n < 0 || n > 32 {
			return "", fmt.Errorf("%q has an invalid prefix length", s)
		}
		bits = n
	}
	return netip.PrefixFrom(netip.AddrFrom4(octets), bits).String(), nil
}
