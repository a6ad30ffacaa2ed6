package tunnelconfig

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/curve25519"
)

// Keypair holds a Curve25519 keypair for WireGuard.
type Keypair struct {
	PrivateKey []byte // 32 bytes, never logged
	PublicKey  []byte // 32 bytes
}

// GenerateKeypair generates a new Curve25519 keypair.
func GenerateKeypair() (*Keypair, error) {
	privateKey := make([]byte, curve25519.ScalarSize)
	if _, err := rand.Read(privateKey); err != nil {
		return nil, fmt.Errorf("tunnelconfig: generate keypair: %w", err)
	}

	clamp(privateKey)

	publicKey, err := curve25519.X25519(privateKey, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("tunnelconfig: derive public key: %w", err)
	}

	return &Keypair{
		PrivateKey: privateKey,
		PublicKey:  publicKey,
	}, nil
}

// EncodePrivateKey returns the standard base64 encoding of the private key.
func (k *Keypair) EncodePrivateKey() string {
	return base64.StdEncoding.EncodeToString(k.PrivateKey)
}

// EncodePublicKey returns the standard base64 encoding of the public key.
func (k *Keypair) EncodePublicKey() string {
	return base64.StdEncoding.EncodeToString(k.PublicKey)
}

// PublicKey derives the base64 public key for a base64 private key.
// The private key is clamped first, as WireGuard does.
func PublicKey(privateKey string) (string, error) {
	priv, err := DecodeKey(privateKey)
	if err != nil {
		return "", err
	}
	clamp(priv)
	pub, err := curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return "", fmt.Errorf("tunnelconfig: derive public key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(pub), nil
}

// DecodeKey decodes a base64 key and checks that it is 32 bytes long.
func DecodeKey(key string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(key)
	if err != nil {
		return nil, fmt.Errorf("tunnelconfig: decode key: %w", err)
	}
	if len(raw) != curve25519.ScalarSize {
		return nil, fmt.Errorf("tunnelconfig: decode key: got %d bytes, want %d", len(raw), curve25519.ScalarSize)
	}
	return raw, nil
}

func clamp(k []byte) {
	k[0] &^= 0x07
	k[31] &^= 0x80
	k[31] |= 0x40
}
