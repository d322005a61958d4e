// Package announce implements the process-wide known-destinations cache
// of spec.md §4.8: destination_hash → (identity_public, app_data,
// ratchet_public_or_none, first_seen, last_seen), bounded and LRU-evicted.
//
// The cache stores identity key material as raw bytes rather than an
// *identity.Identity so that identity (which validates announces into
// this cache) and announce (which this package owns) don't import each
// other; identity.Recall/RecallAppData reconstruct typed values from the
// bytes here.
package announce

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCapacity is used when a non-positive capacity is requested
// (spec.md §6: announce_cache_capacity defaults to implementation-chosen,
// at least 1000).
const DefaultCapacity = 1000

// Record is one entry of the announce cache (spec.md §3).
type Record struct {
	IdentityPublic []byte // pub_encrypt (32) || pub_sign (32)
	AppData        []byte
	RatchetPublic  []byte // nil when no ratchet was announced
	FirstSeen      int64
	LastSeen       int64
}

// Cache is the process-wide known-destinations cache. Grounded on the
// go-sam-bridge destination manager's LRU-backed lookup cache, generalized
// from read-only parse results to read/write announce records with the
// update-on-newer-announce rule of spec.md §3.
type Cache struct {
	mu       sync.RWMutex
	lru      *lru.Cache[string, *Record]
	capacity int
	persist  Persister
}

// Persister is the optional append-only durability hook of spec.md §6.
// A lost or failing Persister is never fatal (spec.md §4.8): the cache
// simply re-learns from future announces.
type Persister interface {
	Append(hash []byte, rec *Record) error
}

// New creates a Cache bounded to capacity entries (DefaultCapacity if
// capacity <= 0), optionally backed by a Persister.
func New(capacity int, persist Persister) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, _ := lru.New[string, *Record](capacity)
	return &Cache{lru: c, capacity: capacity, persist: persist}
}

func key(hash []byte) string { return string(hash) }

// Store inserts or updates the record for hash. Per spec.md §3's
// invariant, a caller should only present app_data it has already
// validated as belonging to a strictly newer accepted announce; Store
// itself does not re-derive "newer" — identity.ValidateAnnounce calls it
// exactly once per accepted announce. Store does not compare now with the
// stored LastSeen: every call replaces the identity and app data and sets
// LastSeen to now, whatever its value.
func (c *Cache) Store(hash []byte, identityPublic []byte, appData []byte, ratchetPublic []byte, now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key(hash)
	rec, existed := c.lru.Get(k)
	first := now
	if existed {
		first = rec.FirstSeen
	}
	next := &Record{
		IdentityPublic: append([]byte(nil), identityPublic...),
		AppData:        append([]byte(nil), appData...),
		FirstSeen:      first,
		LastSeen:       now,
	}
	if ratchetPublic != nil {
		next.RatchetPublic = append([]byte(nil), ratchetPublic...)
	} else if existed {
		// A later announce without a ratchet key doesn't erase a
		// previously learned one; get_ratchet_for_destination recalls
		// the latest observed ratchet, not only the latest announce's.
		next.RatchetPublic = rec.RatchetPublic
	}
	c.lru.Add(k, next)

	if c.persist != nil {
		_ = c.persist.Append(hash, next)
	}
}

// Get returns the cached record for hash, refreshing its LRU recency.
func (c *Cache) Get(hash []byte) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.lru.Get(key(hash))
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Hashes returns the destination hashes currently cached, without
// affecting LRU order. Used by FilePersister.Compact.
func (c *Cache) Hashes() [][]byte {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := c.lru.Keys()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = []byte(k)
	}
	return out
}

// IsKnown reports whether hash has an entry, without affecting LRU order.
func (c *Cache) IsKnown(hash []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Contains(key(hash))
}

// Forget evicts hash from the cache.
func (c *Cache) Forget(hash []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key(hash))
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.Len()
}

// Capacity returns the configured maximum number of entries.
func (c *Cache) Capacity() int { return c.capacity }
