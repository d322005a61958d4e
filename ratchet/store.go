// Package ratchet persists the ephemeral X25519 keypair a destination
// currently ratchets forward-secrecy with (spec.md §3, §4.4): one
// keypair plus an activation timestamp per destination hash, written
// atomically so a crash never leaves a torn record.
//
// Grounded on the teacher's double ratchet key generation
// (protocol/doubleratchet: GenerateDH, Header.RatchetPub) cut down to the
// single rotating keypair spec.md's Ratchet describes — this package
// never derives chain or message keys, only rotates the DH keypair.
package ratchet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"reticulum-core/crypto/x25519key"
)

const recordSize = 4 + x25519key.PrivateKeySize + x25519key.PublicKeySize + 8 // crc32 + priv + pub + unix millis

var ErrCorrupt = errors.New("ratchet: corrupt or truncated record")

// Ratchet is one destination's current ephemeral keypair.
type Ratchet struct {
	priv        *x25519key.PrivateKey
	pub         *x25519key.PublicKey
	ActivatedAt int64 // unix millis
}

// PublicKey returns the ratchet's public key bytes.
func (r *Ratchet) PublicKey() []byte {
	out := make([]byte, x25519key.PublicKeySize)
	copy(out, r.pub[:])
	return out
}

// PrivateKey exposes the scalar for DH against a peer's ratchet key.
func (r *Ratchet) PrivateKey() *x25519key.PrivateKey { return r.priv }

// Store persists one ratchet record per destination hash under a base
// directory, atomically (write to temp file, rename) per spec.md §4.4.
// OpenStore sets Log to logrus.StandardLogger(); a nil Log is not replaced.
type Store struct {
	dir string
	Log logrus.FieldLogger

	mu      sync.RWMutex
	current map[string]*Ratchet   // hash (string) -> ratchet, in-memory cache
	locks   map[string]*sync.Mutex // per-destination write lock
}

// OpenStore prepares a Store rooted at dir, creating it if necessary.
func OpenStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &Store{
		dir:     dir,
		Log:     logrus.StandardLogger(),
		current: make(map[string]*Ratchet),
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) lockFor(hash []byte) *sync.Mutex {
	k := string(hash)
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[k]
	if !ok {
		l = &sync.Mutex{}
		s.locks[k] = l
	}
	return l
}

func (s *Store) path(hash []byte) string {
	return filepath.Join(s.dir, fmt.Sprintf("%x.ratchet", hash))
}

// Load returns the current ratchet for hash, reading through to disk on
// first access. A corrupt or truncated on-disk record is discarded with a
// warning (spec.md §4.4); Load then returns (nil, nil) so the caller
// generates a fresh ratchet.
func (s *Store) Load(hash []byte) (*Ratchet, error) {
	lock := s.lockFor(hash)
	lock.Lock()
	defer lock.Unlock()

	s.mu.RLock()
	if r, ok := s.current[string(hash)]; ok {
		s.mu.RUnlock()
		return r, nil
	}
	s.mu.RUnlock()

	raw, err := os.ReadFile(s.path(hash))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	r, err := decodeRecord(raw)
	if err != nil {
		s.Log.WithError(err).WithField("hash", fmt.Sprintf("%x", hash)).Warn("discarding corrupt ratchet record")
		return nil, nil
	}

	s.mu.Lock()
	s.current[string(hash)] = r
	s.mu.Unlock()
	return r, nil
}

// Rotate generates a fresh ratchet keypair for hash, persists it
// atomically, and makes it current.
func (s *Store) Rotate(hash []byte) (*Ratchet, error) {
	lock := s.lockFor(hash)
	lock.Lock()
	defer lock.Unlock()

	priv, pub, err := x25519key.New()
	if err != nil {
		return nil, err
	}
	r := &Ratchet{priv: priv, pub: pub, ActivatedAt: nowMillis()}

	if err := s.writeAtomic(hash, r); err != nil {
		// Resource error: the destination keeps operating in memory
		// (spec.md §7) even though persistence failed.
		s.Log.WithError(err).WithField("hash", fmt.Sprintf("%x", hash)).Warn("ratchet persistence degraded")
	}

	s.mu.Lock()
	s.current[string(hash)] = r
	s.mu.Unlock()
	return r, nil
}

func (s *Store) writeAtomic(hash []byte, r *Ratchet) error {
	tmp, err := os.CreateTemp(s.dir, "ratchet-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(encodeRecord(r)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path(hash))
}

func encodeRecord(r *Ratchet) []byte {
	buf := make([]byte, recordSize)
	body := buf[4:]
	copy(body, r.priv[:])
	copy(body[x25519key.PrivateKeySize:], r.pub[:])
	binary.BigEndian.PutUint64(body[x25519key.PrivateKeySize+x25519key.PublicKeySize:], uint64(r.ActivatedAt))
	binary.BigEndian.PutUint32(buf[:4], crc32.ChecksumIEEE(body))
	return buf
}

func decodeRecord(raw []byte) (*Ratchet, error) {
	if len(raw) != recordSize {
		return nil, ErrCorrupt
	}
	body := raw[4:]
	if binary.BigEndian.Uint32(raw[:4]) != crc32.ChecksumIEEE(body) {
		return nil, ErrCorrupt
	}
	priv, err := x25519key.FromScalar(body[:x25519key.PrivateKeySize])
	if err != nil {
		return nil, ErrCorrupt
	}
	pub, err := x25519key.PublicFromBytes(body[x25519key.PrivateKeySize : x25519key.PrivateKeySize+x25519key.PublicKeySize])
	if err != nil {
		return nil, ErrCorrupt
	}
	activatedAt := int64(binary.BigEndian.Uint64(body[x25519key.PrivateKeySize+x25519key.PublicKeySize:]))
	return &Ratchet{priv: priv, pub: pub, ActivatedAt: activatedAt}, nil
}
