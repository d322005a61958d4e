// Package wsrelay is a minimal concrete link-layer interface standing in
// for the TCP/serial/RNode interfaces spec.md §1 places out of scope: a
// WebSocket connection that exercises the transport.Interface contract
// end to end. Grounded on the teacher's server.Server, which held one
// *websocket.Conn per connected user behind a mutex-guarded map
// (server/server.go) — generalized here to one interface per connection,
// registered with a transport.AdapterCache instead of a bespoke map.
package wsrelay

import (
	"reticulum-core/crypto/sha256"
	"reticulum-core/ifac"
	"reticulum-core/packet"
	"reticulum-core/transport"

	"github.com/gorilla/websocket"
)

// WSInterface adapts one WebSocket connection to transport.Interface.
type WSInterface struct {
	name string
	hash []byte
	conn *websocket.Conn
	ifac *ifac.Credentials

	onInbound func(data []byte, source transport.InterfaceRef)
}

// NewWSInterface wraps conn, identified by name (Hub passes the remote
// peer's address). The interface's hash is derived from its name the way a
// destination's hash is derived from its aspects — a stable identity for
// AdapterCache memoization (spec.md §4.7).
func NewWSInterface(name string, conn *websocket.Conn) *WSInterface {
	return &WSInterface{
		name: name,
		hash: sha256.Truncated([]byte("wsrelay:" + name)),
		conn: conn,
	}
}

func (w *WSInterface) Name() string     { return w.name }
func (w *WSInterface) Hash() []byte     { return w.hash }
func (w *WSInterface) CanSend() bool    { return true }
func (w *WSInterface) CanReceive() bool { return true }
func (w *WSInterface) Online() bool     { return w.conn != nil }

// SetIFACCredentials arms this interface with network-isolation credentials
// (spec.md §4.6): Send signs outbound packets under them, ReadLoop drops
// inbound packets that don't carry a valid signature. A nil creds (the
// default) leaves the interface unrestricted.
func (w *WSInterface) SetIFACCredentials(creds *ifac.Credentials) {
	w.ifac = creds
}

// Send writes data as a single binary WebSocket message, prepending an
// IFAC signature first when credentials are armed (spec.md §4.6: "outbound
// packets gain an IFAC signature ... per the wire format"). If data
// doesn't parse as a Packet it is sent unsigned, as-is.
func (w *WSInterface) Send(data []byte) error {
	out := data
	if w.ifac != nil {
		if signed, err := w.signPacket(data); err == nil {
			out = signed
		}
	}
	return w.conn.WriteMessage(websocket.BinaryMessage, out)
}

// verifyPacket reports whether data carries a valid IFAC signature under
// this interface's credentials; missing or malformed signatures fail
// closed (spec.md §4.6: "inbound packets missing or failing an IFAC check
// are silently dropped by the interface before they reach" transport).
func (w *WSInterface) verifyPacket(data []byte) bool {
	pkt, err := packet.Decode(data)
	if err != nil || !pkt.IfacFlag {
		return false
	}
	signable, err := packet.IfacSignedMessage(pkt)
	if err != nil {
		return false
	}
	return w.ifac.Verify(signable, pkt.IfacSignature)
}

func (w *WSInterface) signPacket(data []byte) ([]byte, error) {
	pkt, err := packet.Decode(data)
	if err != nil {
		return nil, err
	}
	pkt.IfacFlag = true
	signable, err := packet.IfacSignedMessage(pkt)
	if err != nil {
		return nil, err
	}
	sig, err := w.ifac.Sign(signable)
	if err != nil {
		return nil, err
	}
	pkt.IfacSignature = sig
	return packet.Encode(pkt)
}

// SetInboundCallback installs fn unless one is already installed — this
// interface is never composite, so the guard only protects against
// double registration from a racing GetOrCreate (spec.md §4.7, §9).
func (w *WSInterface) SetInboundCallback(fn func(data []byte, source transport.InterfaceRef)) {
	if w.onInbound != nil {
		return
	}
	w.onInbound = fn
}

func (w *WSInterface) HasInboundCallback() bool { return w.onInbound != nil }

// ReadLoop blocks reading binary messages off the connection and
// dispatches each to the installed inbound callback, preserving the
// per-interface arrival order spec.md §5 requires. It returns when the
// connection is closed or errors.
func (w *WSInterface) ReadLoop() error {
	for {
		msgType, data, err := w.conn.ReadMessage()
		if err != nil {
			return err
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if w.ifac != nil && !w.verifyPacket(data) {
			continue
		}
		if w.onInbound != nil {
			w.onInbound(data, w)
		}
	}
}
