package hkdf

import (
	"golang.org/x/crypto/hkdf"
	"hash"
	"io"

	"reticulum-core/crypto"
)

// Derive is hkdf(len, ikm, salt, info) from the crypto facade: HKDF-SHA256
// over ikm, returning exactly length bytes. salt and info may be nil.
func Derive(length int, ikm, salt, info []byte) ([]byte, error) {
	out := make([]byte, length)
	if _, err := KDF(crypto.DefaultHashFunc, ikm, salt, info, out); err != nil {
		return nil, err
	}
	return out, nil
}

// KDF reads len(buffer) bytes of HKDF-derived key material into buffer.
func KDF(hash func() hash.Hash, keyMaterial []byte, salt []byte, info []byte, buffer []byte) (int, error) {
	hkdfReader := hkdf.New(hash, keyMaterial, salt, info)
	return io.ReadFull(hkdfReader, buffer)
}
