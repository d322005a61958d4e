package wsrelay

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"reticulum-core/announce"
	"reticulum-core/identity"
	"reticulum-core/ifac"
	"reticulum-core/packet"
	"reticulum-core/transport"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub is the connection registry for the relay: it upgrades incoming HTTP
// connections to WebSocket, wraps each in a WSInterface, and memoizes a
// transport.Adapter for it through an AdapterCache. Grounded on the
// teacher's server.Server, which held its connectedUsers map directly;
// here that bookkeeping is delegated to transport.AdapterCache and the
// hub only tracks interfaces for broadcast fan-out.
type Hub struct {
	Log     logrus.FieldLogger
	Cache   *announce.Cache
	Adapter *transport.AdapterCache
	// IFAC arms every interface the hub registers with network-isolation
	// credentials (spec.md §4.6). Nil leaves interfaces unrestricted.
	IFAC *ifac.Credentials

	mu    sync.RWMutex
	peers map[string]*WSInterface
}

// NewHub wires a Hub around an existing announce cache and adapter cache.
func NewHub(cache *announce.Cache, adapters *transport.AdapterCache) *Hub {
	return &Hub{
		Log:     logrus.StandardLogger(),
		Cache:   cache,
		Adapter: adapters,
		peers:   make(map[string]*WSInterface),
	}
}

// Inbound implements transport.Transport: it validates any announce packet
// it sees against the identity/announce machinery and rebroadcasts every
// inbound packet to every other connected peer. Relaying beyond the
// directly connected interface (multi-hop forwarding, path selection) is
// out of scope (spec.md §1) — this is single-hop fan-out only.
func (h *Hub) Inbound(raw []byte, source transport.InterfaceRef) error {
	pkt, err := packet.Decode(raw)
	if err != nil {
		h.Log.WithError(err).Debug("dropping undecodable packet")
		return nil
	}

	if pkt.Type == packet.PacketAnnounce {
		id, err := identity.ValidateAnnounce(h.Cache, pkt, false, time.Now().UnixMilli())
		if err != nil {
			h.Log.WithError(err).Warn("announce validation error")
		} else if id == nil {
			h.Log.Debug("rejected malformed or unverifiable announce")
		}
	}

	h.broadcastExcept(raw, source)
	return nil
}

func (h *Hub) broadcastExcept(raw []byte, source transport.InterfaceRef) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, p := range h.peers {
		if p.Hash() != nil && source != nil && string(p.Hash()) == string(source.Hash()) {
			continue
		}
		if !p.Online() {
			continue
		}
		if err := p.Send(raw); err != nil {
			h.Log.WithError(err).WithField("peer", p.Name()).Warn("send failed")
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket, registers the resulting
// interface, and blocks servicing it until the connection closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	name := r.RemoteAddr
	iface := NewWSInterface(name, conn)
	iface.SetIFACCredentials(h.IFAC)

	h.mu.Lock()
	h.peers[string(iface.Hash())] = iface
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.peers, string(iface.Hash()))
		h.mu.Unlock()
	}()

	if _, err := h.Adapter.GetOrCreate(iface, h); err != nil {
		h.Log.WithError(err).Warn("adapter registration failed")
		return
	}

	h.Log.WithField("peer", name).Info("interface connected")
	if err := iface.ReadLoop(); err != nil {
		h.Log.WithError(err).WithField("peer", name).Debug("interface disconnected")
	}
}
