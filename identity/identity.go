// Package identity implements the long-term keypair at the root of every
// destination and announce: a signing key, an encryption key, and the
// 16-byte hash derived from both public halves.
package identity

import (
	"errors"

	"reticulum-core/announce"
	"reticulum-core/crypto/ed25519key"
	"reticulum-core/crypto/sha256"
	"reticulum-core/crypto/x25519key"
	"reticulum-core/packet"
)

const (
	// SeedSize is the length of the byte string from_bytes expects:
	// the X25519 private scalar followed by the Ed25519 seed.
	SeedSize = x25519key.PrivateKeySize + ed25519key.SeedSize
	// HashSize is the length of an identity hash.
	HashSize = 16
)

var (
	ErrMalformedSeed = errors.New("identity: malformed seed")
	ErrNotPrivate    = errors.New("identity: no private key material")
)

// Identity is immutable after construction: a long-term Ed25519 signing
// keypair, a long-term X25519 encryption keypair, and their combined hash.
// Public-only identities (recalled from the announce cache, or describing
// a remote OUT destination) carry nil private halves.
type Identity struct {
	privSign ed25519key.PrivateKey
	pubSign  ed25519key.PublicKey

	privEnc *x25519key.PrivateKey
	pubEnc  *x25519key.PublicKey

	hash [HashSize]byte
}

// Create generates a fresh Identity with new signing and encryption keys.
func Create() (*Identity, error) {
	privSign, pubSign, err := ed25519key.New()
	if err != nil {
		return nil, err
	}
	privEnc, pubEnc, err := x25519key.New()
	if err != nil {
		return nil, err
	}
	return newIdentity(privSign, pubSign, privEnc, pubEnc), nil
}

// FromBytes reconstructs an Identity from a 64-byte seed: the first 32
// bytes are the X25519 private scalar, the next 32 the Ed25519 seed. It
// returns an error if either half is malformed — callers that treat IFAC
// derivation as configuration (spec.md §4.6, §7) should surface that as
// fatal rather than retry with a default.
func FromBytes(seed []byte) (*Identity, error) {
	if len(seed) != SeedSize {
		return nil, ErrMalformedSeed
	}
	privEnc, err := x25519key.FromScalar(seed[:x25519key.PrivateKeySize])
	if err != nil {
		return nil, ErrMalformedSeed
	}
	pubEnc, err := privEnc.Public()
	if err != nil {
		return nil, ErrMalformedSeed
	}
	privSign, pubSign, err := ed25519key.FromSeed(seed[x25519key.PrivateKeySize:])
	if err != nil {
		return nil, ErrMalformedSeed
	}
	return newIdentity(privSign, pubSign, privEnc, pubEnc), nil
}

// FromPublicKeys builds a public-only Identity, e.g. from a validated
// announce or a recalled cache entry.
func FromPublicKeys(pubEnc *x25519key.PublicKey, pubSign ed25519key.PublicKey) *Identity {
	return &Identity{
		pubSign: append(ed25519key.PublicKey{}, pubSign...),
		pubEnc:  pubEnc,
		hash:    hashOf(pubEnc, pubSign),
	}
}

func newIdentity(privSign ed25519key.PrivateKey, pubSign ed25519key.PublicKey, privEnc *x25519key.PrivateKey, pubEnc *x25519key.PublicKey) *Identity {
	return &Identity{
		privSign: privSign,
		pubSign:  pubSign,
		privEnc:  privEnc,
		pubEnc:   pubEnc,
		hash:     hashOf(pubEnc, pubSign),
	}
}

// hashOf is the truncated hash of pub_encrypt || pub_sign (spec.md §4.2).
func hashOf(pubEnc *x25519key.PublicKey, pubSign ed25519key.PublicKey) [HashSize]byte {
	buf := make([]byte, 0, x25519key.PublicKeySize+ed25519key.PublicKeySize)
	buf = append(buf, pubEnc[:]...)
	buf = append(buf, pubSign...)
	var h [HashSize]byte
	copy(h[:], sha256.Truncated(buf))
	return h
}

// Hash returns the identity's 16-byte hash.
func (id *Identity) Hash() []byte {
	out := make([]byte, HashSize)
	copy(out, id.hash[:])
	return out
}

// PublicEncryptionKey returns the X25519 public key.
func (id *Identity) PublicEncryptionKey() *x25519key.PublicKey { return id.pubEnc }

// PublicSigningKey returns the Ed25519 public key.
func (id *Identity) PublicSigningKey() ed25519key.PublicKey { return id.pubSign }

// HasPrivateKey reports whether this Identity can sign or decrypt.
func (id *Identity) HasPrivateKey() bool { return id.privSign != nil && id.privEnc != nil }

// Sign produces an Ed25519 signature over data. It panics-free fails with
// ErrNotPrivate on a public-only Identity, mirroring a programming error
// (spec.md §7) rather than a silent no-op.
func (id *Identity) Sign(data []byte) ([]byte, error) {
	if !id.HasPrivateKey() {
		return nil, ErrNotPrivate
	}
	return ed25519key.Sign(id.privSign, data), nil
}

// PrivateEncryptionKey exposes the X25519 private scalar for ratchet DH;
// nil on a public-only Identity.
func (id *Identity) PrivateEncryptionKey() *x25519key.PrivateKey { return id.privEnc }

// ToSeedBytes returns the 64-byte seed FromBytes can reconstruct this
// Identity from: the X25519 private scalar followed by the Ed25519 seed.
// Returns ErrNotPrivate on a public-only Identity.
func (id *Identity) ToSeedBytes() ([]byte, error) {
	if !id.HasPrivateKey() {
		return nil, ErrNotPrivate
	}
	out := make([]byte, 0, SeedSize)
	out = append(out, id.privEnc[:]...)
	out = append(out, id.privSign.Seed()...)
	return out, nil
}

// PublicKeyBytes returns pub_encrypt || pub_sign, the bytes the announce
// cache stores and the announce payload carries.
func (id *Identity) PublicKeyBytes() []byte {
	out := make([]byte, 0, x25519key.PublicKeySize+ed25519key.PublicKeySize)
	out = append(out, id.pubEnc[:]...)
	out = append(out, id.pubSign...)
	return out
}

// FromPublicKeyBytes reconstructs a public-only Identity from
// pub_encrypt || pub_sign, the layout PublicKeyBytes and the announce
// cache use.
func FromPublicKeyBytes(b []byte) (*Identity, error) {
	if len(b) != x25519key.PublicKeySize+ed25519key.PublicKeySize {
		return nil, ErrMalformedSeed
	}
	pubEnc, err := x25519key.PublicFromBytes(b[:x25519key.PublicKeySize])
	if err != nil {
		return nil, ErrMalformedSeed
	}
	pubSign := ed25519key.PublicKey(append([]byte(nil), b[x25519key.PublicKeySize:]...))
	return FromPublicKeys(pubEnc, pubSign), nil
}

// IsKnown reports whether destHash has an entry in the announce cache.
func (id *Identity) IsKnown(cache *announce.Cache, destHash []byte) bool {
	return cache.IsKnown(destHash)
}

// Recall returns the public Identity last announced for destHash, if any.
func Recall(cache *announce.Cache, destHash []byte) *Identity {
	rec, ok := cache.Get(destHash)
	if !ok {
		return nil
	}
	id, err := FromPublicKeyBytes(rec.IdentityPublic)
	if err != nil {
		return nil
	}
	return id
}

// RecallAppData returns the app data last announced for destHash, if any.
func RecallAppData(cache *announce.Cache, destHash []byte) []byte {
	rec, ok := cache.Get(destHash)
	if !ok {
		return nil
	}
	return rec.AppData
}

// ValidateAnnounce implements spec.md §4.2's announce validation algorithm.
// On success it returns the proven Identity; on any malformed-input or
// cryptographic-rejection failure it returns (nil, nil) — those are never
// errors that cross this boundary (spec.md §7). onlyValidateSignature
// leaves the announce cache untouched.
func ValidateAnnounce(cache *announce.Cache, pkt *packet.Packet, onlyValidateSignature bool, now int64) (*Identity, error) {
	if len(pkt.DestinationHash) != HashSize {
		return nil, nil
	}

	layout, ok := packet.ParseAnnounceLayout(pkt.Data, pkt.HasRatchet())
	if !ok {
		return nil, nil
	}

	pubEncKey, err := x25519key.PublicFromBytes(layout.PubEncrypt)
	if err != nil {
		return nil, nil
	}

	pubSign := ed25519key.PublicKey(append([]byte(nil), layout.PubSign...))
	candidate := FromPublicKeys(pubEncKey, pubSign)

	var preimage []byte
	if pkt.Destination == packet.DestinationPlain {
		preimage = layout.NameHash
	} else {
		preimage = append(append([]byte{}, candidate.hash[:]...), layout.NameHash...)
	}
	claimedHash := sha256.Truncated(preimage)
	if !bytesEqual(claimedHash, pkt.DestinationHash) {
		return nil, nil
	}

	signedMessage := packet.AnnounceSignedMessage(pkt.DestinationHash, layout)
	if !ed25519key.Verify(pubSign, signedMessage, layout.Signature) {
		return nil, nil
	}

	if onlyValidateSignature {
		return candidate, nil
	}

	cache.Store(pkt.DestinationHash, candidate.PublicKeyBytes(), layout.AppData, layout.RatchetPub, now)
	return candidate, nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
