// Package ifac derives and checks Interface Access Code credentials: the
// per-network isolation key that keeps coexisting Reticulum networks from
// crossing signals on a shared medium (spec.md §4.6).
package ifac

import (
	"encoding/hex"
	"errors"

	"reticulum-core/crypto/ed25519key"
	hkdfutil "reticulum-core/crypto/hkdf"
	"reticulum-core/crypto/sha256"
	"reticulum-core/identity"
)

// Salt is the fixed 32-byte IFAC_SALT constant (spec.md §4.6, §6),
// little-endian bytes as written. spec.md elides the middle of the
// constant ("adf54d88…e55cff8"); the documented prefix and suffix nibbles
// are preserved here and the undocumented middle is zero-filled — see
// DESIGN.md for this Open Question's resolution.
var Salt = mustHex("adf54d880000000000000000000000000000000000000000000000000e55cff8")

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

var (
	// ErrConfiguration signals a fatal configuration error (spec.md §7):
	// the embedding binary should surface this at startup and not
	// attempt to continue with a default.
	ErrConfiguration = errors.New("ifac: configuration error deriving credentials")
)

// Credentials is a derived, immutable IFAC identity. Two Credentials
// compare equal iff their key bytes match (spec.md §3).
type Credentials struct {
	key []byte
	id  *identity.Identity
}

// Identity returns the Identity constructed from the derived 64-byte key.
func (c *Credentials) Identity() *identity.Identity { return c.id }

// KeyBytes returns the 64-byte derived IFAC key.
func (c *Credentials) KeyBytes() []byte { return append([]byte(nil), c.key...) }

// Equal compares two Credentials by key bytes only.
func (c *Credentials) Equal(other *Credentials) bool {
	if c == nil || other == nil {
		return c == other
	}
	if len(c.key) != len(other.key) {
		return false
	}
	for i := range c.key {
		if c.key[i] != other.key[i] {
			return false
		}
	}
	return true
}

// Derive implements spec.md §4.6's derivation. netname and netkey may each
// be empty; if both are empty, Derive returns (nil, nil) — no credentials,
// meaning the interface operates unrestricted. Any other failure
// (malformed seed from from_bytes) is a configuration error and is
// returned wrapped in ErrConfiguration, never silently defaulted.
func Derive(netname, netkey string) (*Credentials, error) {
	if netname == "" && netkey == "" {
		return nil, nil
	}

	var origin []byte
	switch {
	case netname != "" && netkey == "":
		origin = sha256.Hash([]byte(netname))
	case netname == "" && netkey != "":
		origin = sha256.Hash([]byte(netkey))
	default:
		origin = append(sha256.Hash([]byte(netname)), sha256.Hash([]byte(netkey))...)
	}

	originHash := sha256.Hash(origin)

	key, err := hkdfutil.Derive(64, originHash, Salt, nil)
	if err != nil {
		return nil, errorsJoinConfig(err)
	}

	id, err := identity.FromBytes(key)
	if err != nil {
		return nil, errorsJoinConfig(err)
	}

	return &Credentials{key: key, id: id}, nil
}

func errorsJoinConfig(err error) error {
	return &configError{cause: err}
}

type configError struct{ cause error }

func (e *configError) Error() string { return ErrConfiguration.Error() + ": " + e.cause.Error() }
func (e *configError) Unwrap() error { return ErrConfiguration }

// Sign produces the IFAC signature an outbound packet needs (spec.md
// §4.6). The signature is Ed25519 over the packet bytes under the derived
// Identity's signing key; Sign returns only the signature and does not
// place it in the packet.
func (c *Credentials) Sign(packetBytes []byte) ([]byte, error) {
	return c.id.Sign(packetBytes)
}

// Verify reports whether sig is a valid IFAC signature over packetBytes
// under these Credentials (spec.md §4.6: inbound packets failing this
// check are silently dropped by the interface before reaching transport).
func (c *Credentials) Verify(packetBytes, sig []byte) bool {
	return ed25519key.Verify(c.id.PublicSigningKey(), packetBytes, sig)
}
