// Package destination implements named endpoints under an Identity: aspect
// naming, destination hashing, and announce packet construction (spec.md
// §3, §4.3).
package destination

import (
	"crypto/rand"
	"errors"
	"strings"
	"sync"
	"time"

	"reticulum-core/announce"
	"reticulum-core/crypto/sha256"
	"reticulum-core/identity"
	"reticulum-core/packet"
	"reticulum-core/ratchet"
)

type Direction int

const (
	In Direction = iota
	Out
)

type Type int

const (
	Single Type = iota
	Group
	Plain
	Link
)

var (
	ErrNoPrivateIdentity = errors.New("destination: IN destination requires a private identity")
	ErrRatchetsDisabled  = errors.New("destination: ratchets are not enabled for this destination")
)

// Destination is a named endpoint under an Identity (spec.md §3).
type Destination struct {
	identity  *identity.Identity
	direction Direction
	kind      Type
	aspects   []string
	hash      [16]byte

	mu             sync.Mutex
	appData        []byte
	ratchetsOn     bool
	ratchetPath    string
	ratchetStore   *ratchet.Store
	currentRatchet *ratchet.Ratchet

	rotateStop chan struct{}
	rotateWG   sync.WaitGroup
}

// Create constructs a Destination and computes its hash (spec.md §3, §4.3).
// For IN destinations with a private-bearing identity it is ready to
// produce announces immediately.
func Create(id *identity.Identity, direction Direction, kind Type, appName string, aspects ...string) (*Destination, error) {
	if direction == In && (id == nil || !id.HasPrivateKey()) {
		return nil, ErrNoPrivateIdentity
	}
	full := append([]string{appName}, aspects...)
	d := &Destination{
		identity:  id,
		direction: direction,
		kind:      kind,
		aspects:   full,
	}
	d.hash = computeHash(id, kind, full)
	return d, nil
}

// aspectJoin joins the app name and aspects with "." the way the reference
// implementation names a destination. The present implementation exercises
// only SINGLE destinations against the reference (spec.md §9 Open
// Question); PLAIN uses the same join but the identity hash is omitted
// from what gets hashed, per computeHash below.
func aspectJoin(aspects []string) string {
	return strings.Join(aspects, ".")
}

// nameHashOf is name_hash (spec.md §4.2 step 2): the first NameHashSize
// bytes of full_hash(aspect_join). Both the destination hash (computeHash)
// and the announce payload (Announce) derive it the same way so that
// validate_announce's reconstruction matches.
func nameHashOf(aspects []string) []byte {
	return sha256.Hash([]byte(aspectJoin(aspects)))[:packet.NameHashSize]
}

func computeHash(id *identity.Identity, kind Type, aspects []string) [16]byte {
	nameHash := nameHashOf(aspects)
	var preimage []byte
	if kind == Plain {
		preimage = nameHash
	} else {
		preimage = append(append([]byte{}, id.Hash()...), nameHash...)
	}
	var h [16]byte
	copy(h[:], sha256.Truncated(preimage))
	return h
}

// Hash returns the destination's 16-byte hash.
func (d *Destination) Hash() []byte {
	out := make([]byte, 16)
	copy(out, d.hash[:])
	return out
}

func (d *Destination) Identity() *identity.Identity { return d.identity }
func (d *Destination) Direction() Direction          { return d.direction }
func (d *Destination) Type() Type                    { return d.kind }

// SetAppData stores app data to be used by future announces that don't
// supply their own (spec.md §4.3 tie-break rule).
func (d *Destination) SetAppData(appData []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.appData = append([]byte(nil), appData...)
}

// EnableRatchets turns on forward-secrecy ratchets for this IN
// destination, persisting state at path. A fresh ratchet is generated
// immediately if none is current (spec.md §4.3). When interval is
// positive, a background goroutine rotates the ratchet on that cadence
// until StopRatchetRotation is called (spec.md §4.3, §6
// ratchet_rotation_interval); interval <= 0 leaves rotation manual-only,
// driven entirely by RotateRatchet.
func (d *Destination) EnableRatchets(path string, interval time.Duration) error {
	if d.direction != In {
		return ErrNoPrivateIdentity
	}
	d.mu.Lock()

	store, err := ratchet.OpenStore(path)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.ratchetStore = store
	d.ratchetPath = path
	d.ratchetsOn = true

	current, err := store.Load(d.Hash())
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if current == nil {
		current, err = store.Rotate(d.Hash())
		if err != nil {
			d.mu.Unlock()
			return err
		}
	}
	d.currentRatchet = current
	d.mu.Unlock()

	if interval > 0 {
		d.startRotationLoop(interval)
	}
	return nil
}

// startRotationLoop runs RotateRatchet on the given cadence until
// StopRatchetRotation signals rotateStop, the teacher's listenForMessages
// goroutine-plus-WaitGroup shape (client/chatapp.go) applied to a ticker
// instead of a socket read.
func (d *Destination) startRotationLoop(interval time.Duration) {
	d.rotateStop = make(chan struct{})
	d.rotateWG.Add(1)
	go func() {
		defer d.rotateWG.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = d.RotateRatchet()
			case <-d.rotateStop:
				return
			}
		}
	}()
}

// StopRatchetRotation halts the scheduled rotation goroutine started by
// EnableRatchets, if any, and waits for it to exit. Safe to call even
// when no interval was configured.
func (d *Destination) StopRatchetRotation() {
	d.mu.Lock()
	stop := d.rotateStop
	d.rotateStop = nil
	d.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	d.rotateWG.Wait()
}

// RotateRatchet forces a fresh ratchet key, independent of any configured
// interval (spec.md §3: "rotated on a configured interval or on demand").
func (d *Destination) RotateRatchet() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.ratchetsOn {
		return ErrRatchetsDisabled
	}
	r, err := d.ratchetStore.Rotate(d.Hash())
	if err != nil {
		return err
	}
	d.currentRatchet = r
	return nil
}

// Announce builds and signs an announce Packet (spec.md §4.3) and returns
// it. The send flag has no effect: Announce never hands the packet to an
// interface or transport for either value, so sending it is the caller's
// responsibility (this package never imports transport).
func (d *Destination) Announce(appData []byte, send bool) (*packet.Packet, error) {
	if d.identity == nil || !d.identity.HasPrivateKey() {
		return nil, ErrNoPrivateIdentity
	}

	d.mu.Lock()
	if appData == nil {
		appData = d.appData
	}
	var ratchetPub []byte
	if d.ratchetsOn && d.currentRatchet != nil {
		ratchetPub = d.currentRatchet.PublicKey()
	}
	d.mu.Unlock()

	nameHash := nameHashOf(d.aspects)
	randomHash := make([]byte, packet.RandomHashSize)
	if _, err := rand.Read(randomHash); err != nil {
		return nil, err
	}

	layout := &packet.AnnounceLayout{
		PubEncrypt: d.identity.PublicEncryptionKey()[:],
		PubSign:    d.identity.PublicSigningKey(),
		NameHash:   nameHash,
		RandomHash: randomHash,
		RatchetPub: ratchetPub,
		AppData:    appData,
	}

	signedMessage := packet.AnnounceSignedMessage(d.Hash(), layout)
	sig, err := d.identity.Sign(signedMessage)
	if err != nil {
		return nil, err
	}
	layout.Signature = sig

	pkt := &packet.Packet{
		HeaderType:      packet.HeaderType1,
		ContextFlag:     ratchetPub != nil,
		Propagation:     packet.PropagationBroadcast,
		Destination:     typeToWire(d.kind),
		Type:            packet.PacketAnnounce,
		DestinationHash: d.Hash(),
		Data:            packet.BuildAnnounceData(layout),
	}

	if send {
		// Handing the packet to an interface is the transport's job;
		// this package deliberately has no interface/transport import.
		_ = pkt
	}

	return pkt, nil
}

func typeToWire(k Type) packet.DestinationType {
	switch k {
	case Group:
		return packet.DestinationGroup
	case Plain:
		return packet.DestinationPlain
	case Link:
		return packet.DestinationLink
	default:
		return packet.DestinationSingle
	}
}

// learnedRatchets is the process-wide cache of the latest ratchet public
// key observed per destination hash (spec.md §4.3
// get_ratchet_for_destination, §9 "process-wide state").
var learnedRatchets sync.Map // string(hash) -> []byte

// NoteRatchet records the latest observed ratchet public key for a
// destination hash. GetRatchetForDestination calls it with each ratchet it
// reads from the announce cache.
func NoteRatchet(destHash, ratchetPub []byte) {
	if ratchetPub == nil {
		return
	}
	learnedRatchets.Store(string(destHash), append([]byte(nil), ratchetPub...))
}

// GetRatchetForDestination looks up the latest observed ratchet public
// key for destHash: the announce cache's record when it carries one,
// otherwise the value last passed to NoteRatchet.
func GetRatchetForDestination(cache *announce.Cache, destHash []byte) []byte {
	if cache != nil {
		if rec, ok := cache.Get(destHash); ok && rec.RatchetPublic != nil {
			NoteRatchet(destHash, rec.RatchetPublic)
			return rec.RatchetPublic
		}
	}
	if v, ok := learnedRatchets.Load(string(destHash)); ok {
		return v.([]byte)
	}
	return nil
}
