//go:build !linux

package wireguard

import (
	"errors"
	"log/slog"
)

// ErrUnsupportedPlatform is returned by every NetlinkController method on
// platforms without kernel WireGuard netlink support.
var ErrUnsupportedPlatform = errors.New("wireguard: netlink controller requires linux")

// NetlinkController is a stub on non-Linux platforms.
type NetlinkController struct {
	logger *slog.Logger
}

// NewNetlinkController returns a stub controller.
func NewNetlinkController(logger *slog.Logger) *NetlinkController {
	return &NetlinkController{logger: logger}
}

func (c *NetlinkController) CreateInterface(string, []byte, int, int) error {
	return ErrUnsupportedPlatform
}

// DeleteInterface is a no-op: there is never an interface to delete.
func (c *NetlinkController) DeleteInterface(string) error { return nil }

func (c *NetlinkController) ConfigureAddress(string, string) error { return ErrUnsupportedPlatform }

func (c *NetlinkController) SetInterfaceUp(string) error { return ErrUnsupportedPlatform }

func (c *NetlinkController) SetMTU(string, int) error { return ErrUnsupportedPlatform }

func (c *NetlinkController) AddPeer(string, PeerConfig) error { return ErrUnsupportedPlatform }

func (c *NetlinkController) AddRoutes(string, int, []string) error { return ErrUnsupportedPlatform }

func (c *NetlinkController) AddPolicyRules(int, int) error { return ErrUnsupportedPlatform }

func (c *NetlinkController) DeletePolicyRules(int, int) error { return nil }

func (c *NetlinkController) InterfaceState(string) (bool, bool, error) { return false, false, nil }
