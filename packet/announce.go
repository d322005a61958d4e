package packet

import "errors"

// Announce payload layout (spec.md §4.2 step 2):
//
//	pub_encrypt (32) || pub_sign (32) || name_hash (10) || random_hash (10)
//	 [|| ratchet_pub (32)]            -- iff context flag is set
//	 || signature (64)
//	 [|| app_data (remainder)]
const (
	PubEncryptSize = 32
	PubSignSize    = 32
	NameHashSize   = 10
	RandomHashSize = 10
	RatchetPubSize = 32
)

var ErrMalformedAnnounce = errors.New("packet: malformed announce layout")

// AnnounceLayout is the parsed announce payload, prior to any
// cryptographic validation.
type AnnounceLayout struct {
	PubEncrypt []byte
	PubSign    []byte
	NameHash   []byte
	RandomHash []byte
	RatchetPub []byte // nil when the context flag is unset
	Signature  []byte
	AppData    []byte // may be empty, never nil
}

// ParseAnnounceLayout parses data according to the fixed announce layout.
// hasRatchet must reflect the packet's context flag (spec.md §4.2 step 2).
// Returns ok=false on any length mismatch; never panics.
func ParseAnnounceLayout(data []byte, hasRatchet bool) (*AnnounceLayout, bool) {
	fixedLen := PubEncryptSize + PubSignSize + NameHashSize + RandomHashSize
	if hasRatchet {
		fixedLen += RatchetPubSize
	}
	fixedLen += IfacSignatureSize // the announce "signature" field, 64 bytes
	if len(data) < fixedLen {
		return nil, false
	}

	l := &AnnounceLayout{}
	off := 0
	l.PubEncrypt = data[off : off+PubEncryptSize]
	off += PubEncryptSize
	l.PubSign = data[off : off+PubSignSize]
	off += PubSignSize
	l.NameHash = data[off : off+NameHashSize]
	off += NameHashSize
	l.RandomHash = data[off : off+RandomHashSize]
	off += RandomHashSize
	if hasRatchet {
		l.RatchetPub = data[off : off+RatchetPubSize]
		off += RatchetPubSize
	}
	l.Signature = data[off : off+IfacSignatureSize]
	off += IfacSignatureSize
	l.AppData = data[off:]

	return l, true
}

// AnnounceSignedMessage reconstructs the byte range an announce's
// signature is computed over (spec.md §4.2 step 5):
// destination_hash || pub_encrypt || pub_sign || name_hash || random_hash
// || (ratchet_pub if present) || app_data.
func AnnounceSignedMessage(destHash []byte, l *AnnounceLayout) []byte {
	size := len(destHash) + len(l.PubEncrypt) + len(l.PubSign) + len(l.NameHash) + len(l.RandomHash) + len(l.RatchetPub) + len(l.AppData)
	out := make([]byte, 0, size)
	out = append(out, destHash...)
	out = append(out, l.PubEncrypt...)
	out = append(out, l.PubSign...)
	out = append(out, l.NameHash...)
	out = append(out, l.RandomHash...)
	if l.RatchetPub != nil {
		out = append(out, l.RatchetPub...)
	}
	out = append(out, l.AppData...)
	return out
}

// BuildAnnounceData serializes an AnnounceLayout back into the announce
// payload bytes (the inverse of ParseAnnounceLayout), for use as a
// Packet's Data when constructing an outgoing announce.
func BuildAnnounceData(l *AnnounceLayout) []byte {
	size := len(l.PubEncrypt) + len(l.PubSign) + len(l.NameHash) + len(l.RandomHash) + len(l.RatchetPub) + len(l.Signature) + len(l.AppData)
	out := make([]byte, 0, size)
	out = append(out, l.PubEncrypt...)
	out = append(out, l.PubSign...)
	out = append(out, l.NameHash...)
	out = append(out, l.RandomHash...)
	if l.RatchetPub != nil {
		out = append(out, l.RatchetPub...)
	}
	out = append(out, l.Signature...)
	out = append(out, l.AppData...)
	return out
}
