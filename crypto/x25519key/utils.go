// Package x25519key wraps X25519 key agreement.
//
// Replaces the kyber/edwards25519 Diffie-Hellman the teacher used for its
// double ratchet: the reference implementation's encryption keys and
// ratchet keys are Curve25519 X25519 keys, not edwards25519 points, so
// bit-compatibility (spec.md §1, §4.1) requires the Montgomery-curve
// primitive golang.org/x/crypto/curve25519 provides.
package x25519key

import (
	"crypto/rand"
	"errors"
	"io"

	"golang.org/x/crypto/curve25519"
)

const (
	PrivateKeySize = curve25519.ScalarSize // 32
	PublicKeySize  = curve25519.PointSize  // 32
)

var ErrInvalid = errors.New("x25519key: invalid key material")

type (
	PrivateKey [PrivateKeySize]byte
	PublicKey  [PublicKeySize]byte
)

// New generates a fresh X25519 keypair.
func New() (*PrivateKey, *PublicKey, error) {
	var priv PrivateKey
	if _, err := io.ReadFull(rand.Reader, priv[:]); err != nil {
		return nil, nil, err
	}
	pub, err := priv.Public()
	if err != nil {
		return nil, nil, err
	}
	return &priv, pub, nil
}

// FromScalar wraps a raw 32-byte private scalar, e.g. loaded from an
// Identity seed or a persisted ratchet record.
func FromScalar(scalar []byte) (*PrivateKey, error) {
	if len(scalar) != PrivateKeySize {
		return nil, ErrInvalid
	}
	var priv PrivateKey
	copy(priv[:], scalar)
	return &priv, nil
}

// PublicFromBytes wraps a raw 32-byte public point, e.g. one announced
// over the wire, without treating it as a private scalar.
func PublicFromBytes(point []byte) (*PublicKey, error) {
	if len(point) != PublicKeySize {
		return nil, ErrInvalid
	}
	var pub PublicKey
	copy(pub[:], point)
	return &pub, nil
}

// Public derives the public half of a private scalar.
func (priv *PrivateKey) Public() (*PublicKey, error) {
	pubBytes, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}
	var pub PublicKey
	copy(pub[:], pubBytes)
	return &pub, nil
}

// Agree computes the X25519 shared secret x25519(sk, pk).
func Agree(priv *PrivateKey, pub *PublicKey) ([]byte, error) {
	if priv == nil || pub == nil {
		return nil, ErrInvalid
	}
	return curve25519.X25519(priv[:], pub[:])
}

// Equal compares two public keys by their bytes.
func (pub *PublicKey) Equal(other *PublicKey) bool {
	if pub == nil || other == nil {
		return pub == other
	}
	return *pub == *other
}
