package destination

import (
	"bytes"
	"testing"
	"time"

	"reticulum-core/crypto/ed25519key"
	"reticulum-core/identity"
	"reticulum-core/packet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIdentity(t *testing.T) *identity.Identity {
	t.Helper()
	id, err := identity.Create()
	require.NoError(t, err)
	return id
}

func TestCreateRejectsInWithoutPrivateKey(t *testing.T) {
	id := newTestIdentity(t)
	pub, err := identity.FromPublicKeyBytes(id.PublicKeyBytes())
	require.NoError(t, err)

	_, err = Create(pub, In, Single, "app")
	assert.ErrorIs(t, err, ErrNoPrivateIdentity)

	out, err := Create(pub, Out, Single, "app")
	assert.NoError(t, err)
	assert.NotNil(t, out)
}

func TestHashIsStableAndAspectSensitive(t *testing.T) {
	id := newTestIdentity(t)

	d1, err := Create(id, In, Single, "app", "aspect")
	require.NoError(t, err)
	d2, err := Create(id, In, Single, "app", "aspect")
	require.NoError(t, err)
	d3, err := Create(id, In, Single, "app", "other")
	require.NoError(t, err)

	assert.Equal(t, d1.Hash(), d2.Hash())
	assert.NotEqual(t, d1.Hash(), d3.Hash())
	assert.Len(t, d1.Hash(), 16)
}

func TestPlainDestinationOmitsIdentityFromHash(t *testing.T) {
	id1 := newTestIdentity(t)
	id2 := newTestIdentity(t)

	d1, err := Create(id1, Out, Plain, "app", "aspect")
	require.NoError(t, err)
	d2, err := Create(id2, Out, Plain, "app", "aspect")
	require.NoError(t, err)

	assert.Equal(t, d1.Hash(), d2.Hash())
}

func TestAnnounceProducesVerifiableSignature(t *testing.T) {
	id := newTestIdentity(t)
	d, err := Create(id, In, Single, "app")
	require.NoError(t, err)

	pkt, err := d.Announce([]byte("payload"), false)
	require.NoError(t, err)
	assert.Equal(t, packet.PacketAnnounce, pkt.Type)
	assert.Equal(t, d.Hash(), pkt.DestinationHash)
	assert.False(t, pkt.ContextFlag, "no ratchet enabled means no context flag")

	layout, ok := packet.ParseAnnounceLayout(pkt.Data, pkt.HasRatchet())
	require.True(t, ok)
	signed := packet.AnnounceSignedMessage(pkt.DestinationHash, layout)
	assert.True(t, len(signed) > 0)
	assert.True(t, ed25519key.Verify(id.PublicSigningKey(), signed, layout.Signature))
}

func TestAnnounceFallsBackToSetAppData(t *testing.T) {
	id := newTestIdentity(t)
	d, err := Create(id, In, Single, "app")
	require.NoError(t, err)
	d.SetAppData([]byte("default"))

	pkt, err := d.Announce(nil, false)
	require.NoError(t, err)
	layout, ok := packet.ParseAnnounceLayout(pkt.Data, pkt.HasRatchet())
	require.True(t, ok)
	assert.Equal(t, []byte("default"), layout.AppData)
}

func TestAnnounceRequiresPrivateIdentity(t *testing.T) {
	id := newTestIdentity(t)
	pub, err := identity.FromPublicKeyBytes(id.PublicKeyBytes())
	require.NoError(t, err)
	d, err := Create(pub, Out, Single, "app")
	require.NoError(t, err)

	_, err = d.Announce(nil, false)
	assert.ErrorIs(t, err, ErrNoPrivateIdentity)
}

func TestEnableRatchetsSetsContextFlag(t *testing.T) {
	dir := t.TempDir()
	id := newTestIdentity(t)
	d, err := Create(id, In, Single, "app")
	require.NoError(t, err)

	require.NoError(t, d.EnableRatchets(dir, 0))
	pkt, err := d.Announce(nil, false)
	require.NoError(t, err)
	assert.True(t, pkt.ContextFlag)

	layout, ok := packet.ParseAnnounceLayout(pkt.Data, pkt.HasRatchet())
	require.True(t, ok)
	assert.Len(t, layout.RatchetPub, packet.RatchetPubSize)
}

func TestRotateRatchetRequiresEnabled(t *testing.T) {
	id := newTestIdentity(t)
	d, err := Create(id, In, Single, "app")
	require.NoError(t, err)

	err = d.RotateRatchet()
	assert.ErrorIs(t, err, ErrRatchetsDisabled)
}

func TestRotateRatchetChangesKey(t *testing.T) {
	dir := t.TempDir()
	id := newTestIdentity(t)
	d, err := Create(id, In, Single, "app")
	require.NoError(t, err)
	require.NoError(t, d.EnableRatchets(dir, 0))

	first := d.currentRatchet.PublicKey()
	require.NoError(t, d.RotateRatchet())
	second := d.currentRatchet.PublicKey()

	assert.NotEqual(t, first, second)
}

func TestEnableRatchetsSchedulesRotationOnInterval(t *testing.T) {
	dir := t.TempDir()
	id := newTestIdentity(t)
	d, err := Create(id, In, Single, "app")
	require.NoError(t, err)

	require.NoError(t, d.EnableRatchets(dir, 5*time.Millisecond))
	defer d.StopRatchetRotation()

	d.mu.Lock()
	first := d.currentRatchet.PublicKey()
	d.mu.Unlock()
	assert.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return !bytes.Equal(first, d.currentRatchet.PublicKey())
	}, time.Second, 5*time.Millisecond)
}

func TestStopRatchetRotationIsSafeWithoutInterval(t *testing.T) {
	dir := t.TempDir()
	id := newTestIdentity(t)
	d, err := Create(id, In, Single, "app")
	require.NoError(t, err)
	require.NoError(t, d.EnableRatchets(dir, 0))

	d.StopRatchetRotation()
}

func TestNoteAndGetRatchetForDestination(t *testing.T) {
	hash := []byte("0123456789abcdef")[:16]
	ratchetPub := make([]byte, packet.RatchetPubSize)
	for i := range ratchetPub {
		ratchetPub[i] = byte(i)
	}

	NoteRatchet(hash, ratchetPub)
	got := GetRatchetForDestination(nil, hash)
	assert.Equal(t, ratchetPub, got)
}
