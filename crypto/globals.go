package crypto

import "crypto/sha256"

// DefaultHashFunc is the hash HKDF (crypto/hkdf) is built on. full_hash and
// truncated_hash (crypto/sha256) call the standard library's SHA-256
// directly, the same function. Swapping it would break bit-compatibility
// with the reference implementation.
var DefaultHashFunc = sha256.New

const (
	// FullHashSize is the length in bytes of full_hash's output.
	FullHashSize = sha256.Size
	// TruncatedHashSize is the length in bytes used for destination and
	// identity hashes throughout the wire format.
	TruncatedHashSize = 16
	// SignatureSize is the length in bytes of an Ed25519 signature.
	SignatureSize = 64
)
