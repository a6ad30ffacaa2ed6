package metrics

import (
	"context"

	"golang.zx2c4.com/wireguard/wgctrl"
	"golang.zx2c4.com/wireguard/wgctrl/wgtypes"
)

// wgDevices abstracts the wgctrl client calls used by InterfaceCounterReader.
type wgDevices interface {
	Device(name string) (*wgtypes.Device, error)
	Close() error
}

// InterfaceCounterReader reads the peer counters of a WireGuard device.
type InterfaceCounterReader struct {
	iface string
	open  func() (wgDevices, error)
}

// NewInterfaceCounterReader returns a reader for the named WireGuard device.
// A new wgctrl client is opened per read so a recreated device is picked up.
func NewInterfaceCounterReader(iface string) *InterfaceCounterReader {
	return &InterfaceCounterReader{
		iface: iface,
		open: func() (wgDevices, error) {
			c, err := wgctrl.New()
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// ReadCounters implements CounterReader. Counters are summed over all peers.
func (r *InterfaceCounterReader) ReadCounters(_ context.Context) (Counters, error) {
	client, err := r.open()
	if err != nil {
		return Counters{}, &TelemetryReadError{Source: SourceInterface, Err: err}
	}
	defer client.Close()

	dev, err := client.Device(r.iface)
	if err != nil {
		return Counters{}, &TelemetryReadError{Source: SourceInterface, Err: err}
	}

	var c Counters
	for _, p := range dev.Peers {
		c.RxBytes += p.ReceiveBytes
		c.TxBytes += p.TransmitBytes
	}
	return c, nil
}
