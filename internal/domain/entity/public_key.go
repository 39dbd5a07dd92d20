package entity

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKeyLength is the byte length of a BBA Chain public key.
const PublicKeyLength = 32

// PublicKey is an account address on BBA Chain.
type PublicKey [PublicKeyLength]byte

// NewPublicKey converts raw key bytes into a PublicKey.
func NewPublicKey(raw []byte) (PublicKey, error) {
	var pk PublicKey
	if len(raw) != PublicKeyLength {
		return pk, fmt.Errorf("invalid public key input: expected %d bytes, got %d", PublicKeyLength, len(raw))
	}
	copy(pk[:], raw)
	return pk, nil
}

// ParsePublicKey decodes a base58 encoded public key.
func ParsePublicKey(s string) (PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("invalid public key %q: %w", s, err)
	}
	return NewPublicKey(raw)
}

// MustParsePublicKey is ParsePublicKey for constants; it panics on bad input.
func MustParsePublicKey(s string) PublicKey {
	pk, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return pk
}

func (pk PublicKey) String() string {
	return base58.Encode(pk[:])
}

// Bytes returns a copy of the raw key.
func (pk PublicKey) Bytes() []byte {
	out := make([]byte, PublicKeyLength)
	copy(out, pk[:])
	return out
}

// Equals reports whether both keys are the same address.
func (pk PublicKey) Equals(other PublicKey) bool {
	return bytes.Equal(pk[:], other[:])
}

// Verify checks an ed25519 signature made by this key.
func (pk PublicKey) Verify(message, signature []byte) bool {
	return ed25519.Verify(ed25519.PublicKey(pk[:]), message, signature)
}

// MarshalText implements encoding.TextMarshaler.
func (pk PublicKey) MarshalText() ([]byte, error) {
	return []byte(pk.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}
