// Command genkeys generates a fresh Identity and prints its key material.
// Grounded on the teacher's cmd/gen_keys, replacing the kyber-based
// Ed25519 keypair with a real Identity (signing + encryption keys).
package main

import (
	"encoding/hex"
	"fmt"
	"log"

	"reticulum-core/identity"
)

func main() {
	id, err := identity.Create()
	if err != nil {
		log.Fatalf("failed to generate identity: %v", err)
	}

	seed, err := id.ToSeedBytes()
	if err != nil {
		log.Fatalf("failed to export seed: %v", err)
	}

	fmt.Printf("IDENTITY HASH: %s\n", hex.EncodeToString(id.Hash()))
	fmt.Printf("SIGNING PUBLIC: %s\n", hex.EncodeToString(id.PublicSigningKey()))
	fmt.Printf("ENCRYPTION PUBLIC: %s\n", hex.EncodeToString(id.PublicEncryptionKey()[:]))
	fmt.Printf("SEED: %s\n", hex.EncodeToString(seed))
}
