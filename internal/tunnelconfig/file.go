package tunnelconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tunnelFile is the on-disk shape of a tunnel file: one interface block and
// one peer block.
//
//	interface:
//	  address: 10.0.0.2/32
//	  private_key: ...
//	  listen_port: 51820
//	peer:
//	  public_key: ...
//	  allowed_ips: [0.0.0.0/0]
//	  endpoint: 203.0.113.5:51820
type tunnelFile struct {
	Interface struct {
		Address    string `yaml:"address"`
		PrivateKey string `yaml:"private_key"`
		ListenPort int64  `yaml:"listen_port"`
	} `yaml:"interface"`
	Peer struct {
		PublicKey  string   `yaml:"public_key"`
		AllowedIPs []string `yaml:"allowed_ips"`
		Endpoint   string   `yaml:"endpoint"`
	} `yaml:"peer"`
}

// ParseFields decodes a YAML tunnel file without validating it.
func ParseFields(data []byte) (Fields, error) {
	var tf tunnelFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return Fields{}, fmt.Errorf("tunnelconfig: parse: %w", err)
	}
	return Fields{
		InterfaceAddress: tf.Interface.Address,
		PrivateKey:       tf.Interface.PrivateKey,
		ListenPort:       tf.Interface.ListenPort,
		PeerPublicKey:    tf.Peer.PublicKey,
		AllowedIPs:       tf.Peer.AllowedIPs,
		Endpoint:         tf.Peer.Endpoint,
	}, nil
}

// LoadFields reads and decodes a YAML tunnel file without validating it.
func LoadFields(path string) (Fields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fields{}, fmt.Errorf("tunnelconfig: read %s: %w", path, err)
	}
	f, err := ParseFields(data)
	if err != nil {
		return Fields{}, fmt.Errorf("tunnelconfig: %s: %w", path, err)
	}
	return f, nil
}

// Load reads, decodes and validates a YAML tunnel file.
func Load(path string) (TunnelConfig, error) {
	f, err := LoadFields(path)
	if err != nil {
		return TunnelConfig{}, err
	}
	return New(f)
}

// MarshalFields encodes f in the tunnel file shape.
func MarshalFields(f Fields) ([]byte, error) {
	var tf tunnelFile
	tf.Interface.Address = f.InterfaceAddress
	tf.Interface.PrivateKey = f.PrivateKey
	tf.Interface.ListenPort = f.ListenPort
	tf.Peer.PublicKey = f.PeerPublicKey
	tf.Peer.AllowedIPs = f.AllowedIPs
	tf.Peer.Endpoint = f.Endpoint
	data, err := yaml.Marshal(&tf)
	if err != nil {
		return nil, fmt.Errorf("tunnelconfig: marshal: %w", err)
	}
	return data, nil
}
