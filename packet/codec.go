// Package packet implements the framing boundary between bytes on the
// wire and the Packet record of spec.md §3/§4.5: parsing and serializing
// header flags, hops, destination hash, optional transport ID, context,
// and payload. It never consults crypto — signature verification and
// announce semantics live in identity and destination.
package packet

import "errors"

// Header flag bit layout (spec.md §3, §9): a single byte, MSB to LSB:
//
//	bit 7   IFAC present
//	bit 6   header type   (HeaderType1 | HeaderType2)
//	bit 5   context flag  (announce: ratchet key present)
//	bit 4   propagation type (Broadcast | Transport)
//	bit 3-2 destination type (Single | Group | Plain | Link)
//	bit 1-0 packet type   (Data | Announce | LinkRequest | Proof)
const (
	flagIfacShift   = 7
	flagHeaderShift = 6
	flagContextShift = 5
	flagPropShift   = 4
	flagDestShift   = 2
	flagTypeShift   = 0

	flagDestMask = 0x3
	flagTypeMask = 0x3
)

type HeaderType byte

const (
	HeaderType1 HeaderType = iota // destination_hash only
	HeaderType2                   // destination_hash preceded by transport_id_hash
)

type PropagationType byte

const (
	PropagationBroadcast PropagationType = iota
	PropagationTransport
)

type DestinationType byte

const (
	DestinationSingle DestinationType = iota
	DestinationGroup
	DestinationPlain
	DestinationLink
)

type PacketType byte

const (
	PacketData PacketType = iota
	PacketAnnounce
	PacketLinkRequest
	PacketProof
)

const (
	DestinationHashSize  = 16
	TransportIDHashSize  = 16
	IfacSignatureSize    = 64
)

var (
	ErrTooShort    = errors.New("packet: too short")
	ErrBadHeader   = errors.New("packet: bad header")
	ErrUnknownType = errors.New("packet: unknown type")
)

// Packet is the minimal wire record of spec.md §3.
type Packet struct {
	IfacFlag        bool
	HeaderType      HeaderType
	ContextFlag     bool
	Propagation     PropagationType
	Destination     DestinationType
	Type            PacketType
	Hops            byte
	IfacSignature   []byte // present iff IfacFlag, exactly IfacSignatureSize
	TransportIDHash []byte // present iff HeaderType == HeaderType2
	DestinationHash []byte // exactly DestinationHashSize
	Context         byte
	Data            []byte
}

// IfacSignedMessage returns the bytes an IFAC signature is computed over:
// p as it would encode with the IFAC flag and signature stripped (spec.md
// §4.6). Signing and verifying both call this so neither has to agree on
// a byte range separately from Encode/Decode.
func IfacSignedMessage(p *Packet) ([]byte, error) {
	clean := *p
	clean.IfacFlag = false
	clean.IfacSignature = nil
	return Encode(&clean)
}

// HasRatchet reports whether the announce payload in Data is expected to
// carry a ratchet public key, per the context flag (spec.md §4.2 step 2).
func (p *Packet) HasRatchet() bool { return p.ContextFlag }

func (p *Packet) headerByte() byte {
	var b byte
	if p.IfacFlag {
		b |= 1 << flagIfacShift
	}
	b |= byte(p.HeaderType) << flagHeaderShift
	if p.ContextFlag {
		b |= 1 << flagContextShift
	}
	b |= byte(p.Propagation) << flagPropShift
	b |= (byte(p.Destination) & flagDestMask) << flagDestShift
	b |= (byte(p.Type) & flagTypeMask) << flagTypeShift
	return b
}

// Encode serializes a Packet to its wire form.
func Encode(p *Packet) ([]byte, error) {
	if len(p.DestinationHash) != DestinationHashSize {
		return nil, ErrBadHeader
	}
	if p.IfacFlag && len(p.IfacSignature) != IfacSignatureSize {
		return nil, ErrBadHeader
	}
	if p.HeaderType == HeaderType2 && len(p.TransportIDHash) != TransportIDHashSize {
		return nil, ErrBadHeader
	}

	out := make([]byte, 0, 2+len(p.IfacSignature)+len(p.TransportIDHash)+DestinationHashSize+1+len(p.Data))
	out = append(out, p.headerByte(), p.Hops)
	if p.IfacFlag {
		out = append(out, p.IfacSignature...)
	}
	if p.HeaderType == HeaderType2 {
		out = append(out, p.TransportIDHash...)
	}
	out = append(out, p.DestinationHash...)
	out = append(out, p.Context)
	out = append(out, p.Data...)
	return out, nil
}

// Decode parses the wire form of a packet. Unknown packet types decode
// successfully (the type byte is preserved per spec.md §4.5) and produce
// no higher-level effect; only structurally malformed input is an error.
func Decode(raw []byte) (*Packet, error) {
	if len(raw) < 2 {
		return nil, ErrTooShort
	}

	flags := raw[0]
	p := &Packet{
		IfacFlag:    flags&(1<<flagIfacShift) != 0,
		HeaderType:  HeaderType((flags >> flagHeaderShift) & 1),
		ContextFlag: flags&(1<<flagContextShift) != 0,
		Propagation: PropagationType((flags >> flagPropShift) & 1),
		Destination: DestinationType((flags >> flagDestShift) & flagDestMask),
		Type:        PacketType((flags >> flagTypeShift) & flagTypeMask),
		Hops:        raw[1],
	}

	rest := raw[2:]
	if p.IfacFlag {
		if len(rest) < IfacSignatureSize {
			return nil, ErrTooShort
		}
		p.IfacSignature = append([]byte(nil), rest[:IfacSignatureSize]...)
		rest = rest[IfacSignatureSize:]
	}
	if p.HeaderType == HeaderType2 {
		if len(rest) < TransportIDHashSize {
			return nil, ErrTooShort
		}
		p.TransportIDHash = append([]byte(nil), rest[:TransportIDHashSize]...)
		rest = rest[TransportIDHashSize:]
	}
	if len(rest) < DestinationHashSize+1 {
		return nil, ErrTooShort
	}
	p.DestinationHash = append([]byte(nil), rest[:DestinationHashSize]...)
	rest = rest[DestinationHashSize:]
	p.Context = rest[0]
	p.Data = append([]byte{}, rest[1:]...)

	return p, nil
}
