package sha256

import "crypto/sha256"

// Hash returns full_hash(data): the plain SHA-256 digest, 32 bytes.
func Hash(data []byte) []byte {
	hash := sha256.New()
	hash.Write(data)
	return hash.Sum(nil)
}

// Truncated returns truncated_hash(data): the first 16 bytes of full_hash.
func Truncated(data []byte) []byte {
	return Hash(data)[:16]
}
