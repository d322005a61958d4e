// Package transport defines the interface→transport inbound dispatch
// contract of spec.md §4.7: a memoized adapter per link-layer interface
// exposing a stable InterfaceRef, handing received bytes to a consumed
// Transport.Inbound entry point.
//
// Concurrency is grounded on the teacher's server.Server
// (connectedUsers map[string]*websocket.Conn guarded by a mutex),
// generalized from "one websocket per user" to "one adapter per
// interface identity" with at-most-once construction per key.
package transport

// InterfaceRef is the capability set the router sees for a concrete
// link-layer interface (spec.md §6, §9): a tagged capability set, not an
// inheritance hierarchy.
type InterfaceRef interface {
	Name() string
	Hash() []byte
	CanSend() bool
	CanReceive() bool
	Online() bool
	Send(data []byte) error
}

// Transport is the external entry point the core feeds inbound bytes
// into (spec.md §6). The transport router itself is out of scope; this
// is only its inbound hook.
type Transport interface {
	Inbound(raw []byte, source InterfaceRef) error
}

// Interface is the minimal contract a link-layer interface implementation
// must satisfy so an Adapter can be created for it: a stable identity and
// a place to install (at most once) an inbound callback (spec.md §4.7,
// §9 "never overwrites one set by a composite/parent interface").
type Interface interface {
	InterfaceRef
	// SetInboundCallback installs fn as the receive handler, unless one
	// is already installed, in which case it must be a no-op (a
	// composite/parent interface may already own the slot).
	SetInboundCallback(fn func(data []byte, source InterfaceRef))
	HasInboundCallback() bool
}
