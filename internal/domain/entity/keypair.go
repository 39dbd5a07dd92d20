package entity

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

// Keypair is a local ed25519 signer, used for the extra signers of a transaction.
type Keypair struct {
	private ed25519.PrivateKey
}

// GenerateKeypair creates a random keypair.
func GenerateKeypair() (Keypair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return Keypair{}, fmt.Errorf("failed to generate keypair: %w", err)
	}
	return Keypair{private: priv}, nil
}

// KeypairFromSeed derives a keypair from a 32 byte seed.
func KeypairFromSeed(seed []byte) (Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return Keypair{}, fmt.Errorf("invalid seed length %d, expected %d", len(seed), ed25519.SeedSize)
	}
	return Keypair{private: ed25519.NewKeyFromSeed(seed)}, nil
}

// PublicKey returns the address of the keypair.
func (k Keypair) PublicKey() PublicKey {
	var pk PublicKey
	copy(pk[:], k.private.Public().(ed25519.PublicKey))
	return pk
}

// Sign signs message with the private key.
func (k Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.private, message)
}
