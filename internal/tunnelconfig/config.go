// Package tunnelconfig validates and constructs immutable tunnel configurations.
//
// Validation is a syntax gate only. Keys are checked for shape (length and
// alphabet), never for cryptographic validity, and addresses are never resolved.
package tunnelconfig

import (
	"regexp"
	"strconv"
	"strings"
)

// Field names used in FieldError and in the on-disk and wire shapes.
const (
	FieldAddress       = "address"
	FieldPrivateKey    = "private_key"
	FieldListenPort    = "listen_port"
	FieldPeerPublicKey = "public_key"
	FieldAllowedIPs    = "allowed_ips"
	FieldEndpoint      = "endpoint"
)

// keyPattern matches 32 raw bytes base64-encoded with padding.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9+/]{43}=$`)

// Fields holds raw, unvalidated tunnel configuration input.
type Fields struct {
	InterfaceAddress string   `json:"address" yaml:"address"`
	PrivateKey       string   `json:"private_key" yaml:"private_key"`
	ListenPort       int64    `json:"listen_port" yaml:"listen_port"`
	PeerPublicKey    string   `json:"public_key" yaml:"public_key"`
	AllowedIPs       []string `json:"allowed_ips" yaml:"allowed_ips"`
	Endpoint         string   `json:"endpoint" yaml:"endpoint"`
}

// TunnelConfig is a validated tunnel configuration. The only way to obtain a
// usable TunnelConfig is New; the zero value reports Valid() == false.
type TunnelConfig struct {
	address    string
	privateKey string
	listenPort int
	peerKey    string
	allowedIPs []string
	endpoint   string
	valid      bool
}

// New validates f and returns the corresponding TunnelConfig. Every field is
// checked; on failure the returned error is a *ValidationError listing all
// problems and wraps ErrValidation.
func New(f Fields) (TunnelConfig, error) {
	var problems []FieldError

	if err := checkAddress(f.InterfaceAddress); err != "" {
		problems = append(problems, FieldError{Field: FieldAddress, Reason: err})
	}
	if !keyPattern.MatchString(f.PrivateKey) {
		problems = append(problems, FieldError{Field: FieldPrivateKey, Reason: "must be 44 base64 characters ending in '='"})
	}
	if f.ListenPort < 1 || f.ListenPort > 65535 {
		problems = append(problems, FieldError{Field: FieldListenPort, Reason: "must be between 1 and 65535"})
	}
	if !keyPattern.MatchString(f.PeerPublicKey) {
		problems = append(problems, FieldError{Field: FieldPeerPublicKey, Reason: "must be 44 base64 characters ending in '='"})
	}
	if len(f.AllowedIPs) == 0 {
		problems = append(problems, FieldError{Field: FieldAllowedIPs, Reason: "must not be empty"})
	}
	for i, ip := range f.AllowedIPs {
		if err := checkAddress(ip); err != "" {
			problems = append(problems, FieldError{Field: FieldAllowedIPs, Index: &i, Reason: err})
		}
	}
	if err := checkEndpoint(f.Endpoint); err != "" {
		problems = append(problems, FieldError{Field: FieldEndpoint, Reason: err})
	}

	if len(problems) > 0 {
		return TunnelConfig{}, &ValidationError{Problems: problems}
	}

	return TunnelConfig{
		address:    f.InterfaceAddress,
		privateKey: f.PrivateKey,
		listenPort: int(f.ListenPort),
		peerKey:    f.PeerPublicKey,
		allowedIPs: append([]string(nil), f.AllowedIPs...),
		endpoint:   f.Endpoint,
		valid:      true,
	}, nil
}

// Valid reports whether c was produced by a successful New.
func (c TunnelConfig) Valid() bool { return c.valid }

func (c TunnelConfig) InterfaceAddress() string { return c.address }

// PrivateKey returns the base64 private key. Callers must not log it.
func (c TunnelConfig) PrivateKey() string { return c.privateKey }

func (c TunnelConfig) ListenPort() int { return c.listenPort }

func (c TunnelConfig) PeerPublicKey() string { return c.peerKey }

// AllowedIPs returns a copy of the allowed IP list in input order.
func (c TunnelConfig) AllowedIPs() []string { return append([]string(nil), c.allowedIPs...) }

func (c TunnelConfig) Endpoint() string { return c.endpoint }

// Fields returns the configuration as raw fields, verbatim as validated.
func (c TunnelConfig) Fields() Fields {
	return Fields{
		InterfaceAddress: c.address,
		PrivateKey:       c.privateKey,
		ListenPort:       int64(c.listenPort),
		PeerPublicKey:    c.peerKey,
		AllowedIPs:       c.AllowedIPs(),
		Endpoint:         c.endpoint,
	}
}

// checkAddress accepts a dotted-quad IPv4 address with an optional /N prefix
// length. It returns a reason string, empty when the value is acceptable.
func checkAddress(s string) string {
	host, prefix, hasPrefix := strings.Cut(s, "/")
	if !isDottedQuad(host) {
		return "must be a dotted-quad IPv4 address"
	}
	if hasPrefix {
		if !isDigits(prefix) || len(prefix) > 2 {
			return "prefix length must be between 0 and 32"
		}
		n, _ := strconv.Atoi(prefix)
		if n > 32 {
			return "prefix length must be between 0 and 32"
		}
	}
	return ""
}

func checkEndpoint(s string) string {
	i := strings.LastIndexByte(s, ':')
	if i < 0 {
		return "must be ip:port"
	}
	host, port := s[:i], s[i+1:]
	if !isDottedQuad(host) {
		return "host must be a dotted-quad IPv4 address"
	}
	if !isDigits(port) {
		return "port must be a non-negative integer"
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return "port must be between 0 and 65535"
	}
	return ""
}

func isDottedQuad(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if len(p) == 0 || len(p) > 3 || !isDigits(p) {
			return false
		}
		n, _ := strconv.Atoi(p)
		if n > 255 {
			return false
		}
	}
	return true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
