package transport

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Adapter is the one-per-interface object the router holds: it bridges a
// concrete Interface's raw receive callback into Transport.Inbound,
// carrying the interface's stable InterfaceRef.
type Adapter struct {
	iface     Interface
	transport Transport
}

// Send delegates to the underlying interface.
func (a *Adapter) Send(data []byte) error { return a.iface.Send(data) }
func (a *Adapter) Name() string           { return a.iface.Name() }
func (a *Adapter) Hash() []byte           { return a.iface.Hash() }
func (a *Adapter) CanSend() bool          { return a.iface.CanSend() }
func (a *Adapter) CanReceive() bool       { return a.iface.CanReceive() }
func (a *Adapter) Online() bool           { return a.iface.Online() }

// AdapterCache memoizes one Adapter per interface identity and guarantees
// at-most-once construction per key even under concurrent GetOrCreate
// calls from multiple interface setup threads (spec.md §4.7 concurrency
// contract, §8 S6, §9 "concurrent map patterns").
type AdapterCache struct {
	mu      sync.RWMutex
	byHash  map[string]*Adapter
	inflight singleflight.Group
}

// NewAdapterCache creates an empty cache.
func NewAdapterCache() *AdapterCache {
	return &AdapterCache{byHash: make(map[string]*Adapter)}
}

// GetOrCreate returns the memoized Adapter for iface, creating and
// installing its inbound callback exactly once. transport is only
// consulted on first creation for a given interface identity.
func (c *AdapterCache) GetOrCreate(iface Interface, transport Transport) (*Adapter, error) {
	key := string(iface.Hash())

	c.mu.RLock()
	if a, ok := c.byHash[key]; ok {
		c.mu.RUnlock()
		return a, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.inflight.Do(key, func() (interface{}, error) {
		c.mu.RLock()
		if a, ok := c.byHash[key]; ok {
			c.mu.RUnlock()
			return a, nil
		}
		c.mu.RUnlock()

		a := &Adapter{iface: iface, transport: transport}
		if !iface.HasInboundCallback() {
			iface.SetInboundCallback(func(data []byte, source InterfaceRef) {
				_ = a.transport.Inbound(data, source)
			})
		}

		c.mu.Lock()
		c.byHash[key] = a
		c.mu.Unlock()
		return a, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Adapter), nil
}

// Get returns the Adapter for hash, if one has been created.
func (c *AdapterCache) Get(hash []byte) (*Adapter, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.byHash[string(hash)]
	return a, ok
}

// Len returns the number of memoized adapters.
func (c *AdapterCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byHash)
}
