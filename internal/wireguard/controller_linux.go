//go:build linux

package wireguard

import (
	"errors"
	"fmt"
	"log/slog"
	"net"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// NetlinkController implements WGController using Linux netlink and wgctrl.
type NetlinkController struct {
	logger *slog.Logger
}

// NewNetlinkController returns a new NetlinkController.
func NewNetlinkController(logger *slog.Logger) *NetlinkController {
	return &NetlinkController{logger: logger}
}

// CreateInterface creates a WireGuard interface with the given name and
// configures its private key, listen port and firewall mark.
func (c *NetlinkController) CreateInterface(name string, privateKey []byte, listenPort int, fwmark int) error {
	la := netlink.NewLinkAttrs()
	la.Name = name
	link := &netlink.GenericLink{LinkAttrs: la, LinkType: "wireguard"}

	if err := netlink.LinkAdd(link); err != nil {
		return fmt.Errorf("wireguard: create interface: %w", err)
	}

	c.logger.Debug("netlink interface created",
		"component", "wireguard",
		"interface", name,
	)

	client, err := wgctrl.New()
	if err != nil {
		return fmt.Errorf("wireguard: create interface: open wgctrl: %w", err)
	}
	defer client.Close()

	key, err := wgtypes.NewKey(privateKey)
	if err != nil {
		return fmt.Errorf("wireguard: create interface: parse private key: %w", err)
	}

	err = client.ConfigureDevice(name, wgtypes.Config{
		PrivateKey:   &key,
		ListenPort:   &listenPort,
		FirewallMark: &fwmark,
	})
	if err != nil {
		return fmt.Errorf("wireguard: create interface: configure device: %w", err)
	}

	c.logger.Info("wireguard interface created",
		"component", "wireguard",
		"interface", name,
		"listen_port", listenPort,
	)

	return nil
}

// DeleteInterface deletes the named WireGuard interface.
// It is idempotent: deleting a non-existent interface returns nil.
func (c *NetlinkController) DeleteInterface(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("wireguard: delete interface: %w", err)
	}

	if err := netlink.LinkDel(link); err != nil {
		return fmt.Errorf("wireguard: delete interface: %w", err)
	}

	c.logger.Info("wireguard interface deleted",
		"component", "wireguard",
		"interface", name,
	)

	return nil
}

// ConfigureAddress adds a CIDR address to the named interface.
func (c *NetlinkController) ConfigureAddress(name string, address string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("wireguard: configure address: %w", err)
	}

	addr, err := netlink.ParseAddr(address)
	if err != nil {
		return fmt.Errorf("wireguard: configure address: parse %q: %w", address, err)
	}

	if err := netlink.AddrAdd(link, addr); err != nil {
		return fmt.Errorf("wireguard: configure address: %w", err)
	}

	c.logger.Debug("address configured",
		"component", "wireguard",
		"interface", name,
		"address", address,
	)

	return nil
}

// SetInterfaceUp brings the named interface up.
func (c *NetlinkController) SetInterfaceUp(name string) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("wireguard: set interface up: %w", err)
	}

	if err := netlink.LinkSetUp(link); err != nil {
		return fmt.Errorf("wireguard: set interface up: %w", err)
	}

	c.logger.Debug("interface brought up",
		"component", "wireguard",
		"interface", name,
	)

	return nil
}

// SetMTU sets the MTU on the named interface.
func (c *NetlinkController) SetMTU(name string, mtu int) error {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return fmt.Errorf("wireguard: set mtu: %w", err)
	}

	if err := netlink.LinkSetMTU(link, mtu); err != nil {
		return fmt.Errorf("wireguard: set mtu: %w", err)
	}

	c.logger.Debug("mtu configured",
		"component", "wireguard",
		"interface", name,
		"mtu", mtu,
	)

	return nil
}

// AddPeer configures the peer on the named WireGuard interface, replacing any
// existing peers. A new wgctrl client is created per call to avoid stale
// netlink sockets across long-lived controller instances.
func (c *NetlinkController) AddPeer(iface string, cfg PeerConfig) error {
	client, err := wgctrl.New()
	if err != nil {
		return fmt.Errorf("wireguard: add peer: open wgctrl: %w", err)
	}
	defer client.Close()

	pubKey, err := wgtypes.NewKey(cfg.PublicKey)
	if err != nil {
		return fmt.Errorf("wireguard: add peer: parse public key: %w", err)
	}

	peerCfg := wgtypes.PeerConfig{
		PublicKey:         pubKey,
		ReplaceAllowedIPs: true,
	}

	if cfg.Endpoint != "" {
		udpAddr, err := net.ResolveUDPAddr("udp4", cfg.Endpoint)
		if err != nil {
			return fmt.Errorf("wireguard: add peer: resolve endpoint: %w", err)
		}
		peerCfg.Endpoint = udpAddr
	}

	for _, cidr := range cfg.AllowedIPs {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return fmt.Errorf("wireguard: add peer: parse allowed IP %q: %w", cidr, err)
		}
		peerCfg.AllowedIPs = append(peerCfg.AllowedIPs, *ipNet)
	}

	err = client.ConfigureDevice(iface, wgtypes.Config{
		ReplacePeers: true,
		Peers:        []wgtypes.PeerConfig{peerCfg},
	})
	if err != nil {
		return fmt.Errorf("wireguard: add peer: configure device: %w", err)
	}

	c.logger.Debug("peer added",
		"component", "wireguard",
		"interface", iface,
		"endpoint", cfg.Endpoint,
	)

	return nil
}

// AddRoutes adds a link-scoped route per CIDR via iface into table.
// Existing routes are treated as success.
func (c *NetlinkController) AddRoutes(iface string, table int, cidrs []string) error {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		return fmt.Errorf("wireguard: add routes: lookup interface %q: %w", iface, err)
	}

	for _, cidr := range cidrs {
		_, dst, err := net.ParseCIDR(cidr)
		if err != nil {
			return fmt.Errorf("wireguard: add routes: parse CIDR %q: %w", cidr, err)
		}
		route := &netlink.Route{
			Dst:       dst,
			LinkIndex: link.Attrs().Index,
			Scope:     netlink.SCOPE_LINK,
			Table:     table,
		}
		if err := netlink.RouteAdd(route); err != nil && !errors.Is(err, unix.EEXIST) {
			return fmt.Errorf("wireguard: add routes: %s: %w", cidr, err)
		}
	}

	c.logger.Debug("routes added",
		"component", "wireguard",
		"interface", iface,
		"table", table,
		"count", len(cidrs),
	)
	return nil
}

// AddPolicyRules installs the two policy rules that send unmarked traffic to
// the tunnel table while marked traffic keeps using the main table.
func (c *NetlinkController) AddPolicyRules(table, priority int) error {
	for _, rule := range policyRules(table, priority) {
		if err := netlink.RuleAdd(rule); err != nil && !errors.Is(err, unix.EEXIST) {
			return fmt.Errorf("wireguard: add policy rules: priority %d: %w", rule.Priority, err)
		}
	}

	c.logger.Debug("policy rules added",
		"component", "wireguard",
		"table", table,
		"priority", priority,
	)
	return nil
}

// DeletePolicyRules removes the rules installed by AddPolicyRules.
// It is idempotent: missing rules are not an error.
func (c *NetlinkController) DeletePolicyRules(table, priority int) error {
	var errs []error
	for _, rule := range policyRules(table, priority) {
		if err := netlink.RuleDel(rule); err != nil && !errors.Is(err, unix.ENOENT) {
			errs = append(errs, fmt.Errorf("priority %d: %w", rule.Priority, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("wireguard: delete policy rules: %w", errors.Join(errs...))
	}
	return nil
}

// InterfaceState reports whether the named WireGuard interface exists and is up.
func (c *NetlinkController) InterfaceState(name string) (exists, up bool, err error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("wireguard: interface state: %w", err)
	}
	if link.Type() != "wireguard" {
		return false, false, nil
	}
	return true, link.Attrs().Flags&net.FlagUp != 0, nil
}

func policyRules(table, priority int) []*netlink.Rule {
	bypass := netlink.NewRule()
	bypass.Family = netlink.FAMILY_V4
	bypass.Priority = priority
	bypass.Mark = FirewallMark
	bypass.Table = unix.RT_TABLE_MAIN

	tunnel := netlink.NewRule()
	tunnel.Family = netlink.FAMILY_V4
	tunnel.Priority = priority + 1
	tunnel.Table = table

	return []*netlink.Rule{bypass, tunnel}
}
