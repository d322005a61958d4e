// Package config holds the tunables spec.md §6 enumerates. It does not
// parse any file format (out of scope per spec.md §1); an embedding
// binary fills in a Config from flags or environment the way the
// teacher's cmd/server/main.go wires its own address/port literals.
package config

import "time"

// Defaults, in the teacher's package-level-var style
// (configs/configs.go).
var (
	DefaultRelayAddress = "localhost:8080"
	DefaultRedisAddress = "localhost:6379"
	DefaultWebSocketPath = "/ws"

	// DefaultAnnounceCacheCapacity is used when Config.AnnounceCacheCapacity
	// is left at zero (spec.md §6: "default implementation-chosen (>= 1000)").
	DefaultAnnounceCacheCapacity = 1000
)

// Config is the set of options spec.md §6 enumerates for one running
// instance of the stack.
type Config struct {
	// Netname and Netkey derive IFAC credentials (spec.md §4.6). Leaving
	// both empty means the interface operates unrestricted.
	Netname string
	Netkey  string

	// RatchetRotationInterval is the configured rotation period
	// (spec.md §6). The zero value means unbounded/manual rotation.
	RatchetRotationInterval time.Duration

	// AnnounceCacheCapacity bounds the announce cache (spec.md §4.8,
	// §6). Zero means DefaultAnnounceCacheCapacity.
	AnnounceCacheCapacity int

	// AnnounceCachePath enables durable, append-only persistence of the
	// announce cache when non-empty (spec.md §6, §4.8).
	AnnounceCachePath string

	// RatchetStorePath is the directory ratchet files live under
	// (spec.md §6 persisted state).
	RatchetStorePath string
}

// EffectiveAnnounceCacheCapacity resolves the configured capacity,
// applying the default when unset.
func (c *Config) EffectiveAnnounceCacheCapacity() int {
	if c.AnnounceCacheCapacity > 0 {
		return c.AnnounceCacheCapacity
	}
	return DefaultAnnounceCacheCapacity
}
