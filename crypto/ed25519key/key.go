// Package ed25519key wraps standard Ed25519 signing keys.
//
// Unlike the Schnorr-over-edwards25519 signer it replaces, this package is
// the real Ed25519 (RFC 8032) the reference implementation signs announces
// with — bit-compatibility (spec.md §1, §4.1) rules out any other scheme.
package ed25519key

import (
	"errors"

	"golang.org/x/crypto/ed25519"
)

const (
	SeedSize      = ed25519.SeedSize      // 32
	PublicKeySize = ed25519.PublicKeySize // 32
	SignatureSize = ed25519.SignatureSize // 64
)

var ErrMalformedSeed = errors.New("ed25519key: malformed seed")

type (
	PrivateKey = ed25519.PrivateKey
	PublicKey  = ed25519.PublicKey
)

// New generates a fresh Ed25519 signing keypair.
func New() (PrivateKey, PublicKey, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, err
	}
	return priv, pub, nil
}

// FromSeed reconstructs a signing keypair from a 32-byte seed.
func FromSeed(seed []byte) (PrivateKey, PublicKey, error) {
	if len(seed) != SeedSize {
		return nil, nil, ErrMalformedSeed
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := make(PublicKey, PublicKeySize)
	copy(pub, priv[SeedSize:])
	return priv, pub, nil
}

// Sign produces an Ed25519 signature over data.
func Sign(priv PrivateKey, data []byte) []byte {
	return ed25519.Sign(priv, data)
}

// Verify reports whether sig is a valid Ed25519 signature of data under pub.
func Verify(pub PublicKey, data, sig []byte) bool {
	if len(pub) != PublicKeySize || len(sig) != SignatureSize {
		return false
	}
	return ed25519.Verify(pub, data, sig)
}
