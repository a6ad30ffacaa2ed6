//go:build linux

package platform

import (
	"errors"
	"fmt"
	"os"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
)

// probeLinkName is the throwaway link created by Request.
const probeLinkName = "wgsession-probe"

// hasNetAdmin reports whether CAP_NET_ADMIN is in the effective set.
func hasNetAdmin() (bool, error) {
	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_3}
	var data [2]unix.CapUserData
	if err := unix.Capget(&hdr, &data[0]); err != nil {
		return false, fmt.Errorf("platform: capget: %w", err)
	}
	const bit = unix.CAP_NET_ADMIN
	return data[bit/32].Effective&(1<<(bit%32)) != 0, nil
}

// wireguardModuleLoaded reports whether the wireguard module is present.
func wireguardModuleLoaded() bool {
	_, err := os.Stat("/sys/module/wireguard")
	return err == nil
}

// probeLink creates and deletes a WireGuard link.
func probeLink() error {
	la := netlink.NewLinkAttrs()
	la.Name = probeLinkName
	link := &netlink.GenericLink{LinkAttrs: la, LinkType: "wireguard"}

	if err := netlink.LinkAdd(link); err != nil && !errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("platform: probe: %w", err)
	}
	if err := netlink.LinkDel(link); err != nil {
		return fmt.Errorf("platform: probe cleanup: %w", err)
	}
	return nil
}
