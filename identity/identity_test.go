package identity_test

import (
	"testing"

	"reticulum-core/announce"
	"reticulum-core/destination"
	"reticulum-core/identity"
	"reticulum-core/packet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndSeedRoundtrip(t *testing.T) {
	id, err := identity.Create()
	require.NoError(t, err)
	assert.True(t, id.HasPrivateKey())
	assert.Len(t, id.Hash(), identity.HashSize)

	seed, err := id.ToSeedBytes()
	require.NoError(t, err)
	assert.Len(t, seed, identity.SeedSize)

	restored, err := identity.FromBytes(seed)
	require.NoError(t, err)
	assert.Equal(t, id.Hash(), restored.Hash())
	assert.Equal(t, id.PublicKeyBytes(), restored.PublicKeyBytes())
}

func TestFromBytesRejectsWrongLength(t *testing.T) {
	tests := []struct {
		name string
		seed []byte
	}{
		{"empty", nil},
		{"too short", make([]byte, identity.SeedSize-1)},
		{"too long", make([]byte, identity.SeedSize+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := identity.FromBytes(tt.seed)
			assert.ErrorIs(t, err, identity.ErrMalformedSeed)
		})
	}
}

func TestSignRequiresPrivateKey(t *testing.T) {
	id, err := identity.Create()
	require.NoError(t, err)
	pub, err := identity.FromPublicKeyBytes(id.PublicKeyBytes())
	require.NoError(t, err)

	assert.False(t, pub.HasPrivateKey())
	_, err = pub.Sign([]byte("hello"))
	assert.ErrorIs(t, err, identity.ErrNotPrivate)

	_, err = pub.ToSeedBytes()
	assert.ErrorIs(t, err, identity.ErrNotPrivate)
}

func TestValidateAnnounceAcceptsWellFormedAnnounce(t *testing.T) {
	id, err := identity.Create()
	require.NoError(t, err)

	dest, err := destination.Create(id, destination.In, destination.Single, "app")
	require.NoError(t, err)

	pkt, err := dest.Announce([]byte("hello"), false)
	require.NoError(t, err)

	cache := announce.New(10, nil)
	got, err := identity.ValidateAnnounce(cache, pkt, false, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id.Hash(), got.Hash())
	assert.True(t, cache.IsKnown(dest.Hash()))

	rec, ok := cache.Get(dest.Hash())
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), rec.AppData)
}

func TestValidateAnnounceRejectsTamperedAppData(t *testing.T) {
	id, err := identity.Create()
	require.NoError(t, err)
	dest, err := destination.Create(id, destination.In, destination.Single, "app")
	require.NoError(t, err)

	pkt, err := dest.Announce([]byte("hello"), false)
	require.NoError(t, err)
	data := append([]byte(nil), pkt.Data...)
	data[len(data)-1] ^= 0xff
	pkt.Data = data

	cache := announce.New(10, nil)
	got, err := identity.ValidateAnnounce(cache, pkt, false, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, cache.IsKnown(dest.Hash()))
}

func TestValidateAnnounceRejectsWrongDestinationHashLength(t *testing.T) {
	cache := announce.New(10, nil)
	pkt := &packet.Packet{DestinationHash: []byte{1, 2, 3}}
	got, err := identity.ValidateAnnounce(cache, pkt, false, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestValidateAnnounceOnlyValidateSignatureSkipsCache(t *testing.T) {
	id, err := identity.Create()
	require.NoError(t, err)
	dest, err := destination.Create(id, destination.In, destination.Single, "app")
	require.NoError(t, err)
	pkt, err := dest.Announce(nil, false)
	require.NoError(t, err)

	cache := announce.New(10, nil)
	got, err := identity.ValidateAnnounce(cache, pkt, true, 1)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, cache.IsKnown(dest.Hash()))
}

func TestFromPublicKeyBytesRoundtrip(t *testing.T) {
	id, err := identity.Create()
	require.NoError(t, err)

	restored, err := identity.FromPublicKeyBytes(id.PublicKeyBytes())
	require.NoError(t, err)
	assert.Equal(t, id.Hash(), restored.Hash())
	assert.False(t, restored.HasPrivateKey())

	_, err = identity.FromPublicKeyBytes(make([]byte, 10))
	assert.ErrorIs(t, err, identity.ErrMalformedSeed)
}

func TestValidateAnnounceStoresRatchetPublic(t *testing.T) {
	dir := t.TempDir()
	id, err := identity.Create()
	require.NoError(t, err)
	dest, err := destination.Create(id, destination.In, destination.Single, "app")
	require.NoError(t, err)
	require.NoError(t, dest.EnableRatchets(dir, 0))

	pkt, err := dest.Announce(nil, false)
	require.NoError(t, err)
	layout, ok := packet.ParseAnnounceLayout(pkt.Data, pkt.HasRatchet())
	require.True(t, ok)
	require.NotEmpty(t, layout.RatchetPub)

	cache := announce.New(10, nil)
	got, err := identity.ValidateAnnounce(cache, pkt, false, 1)
	require.NoError(t, err)
	require.NotNil(t, got)

	rec, ok := cache.Get(dest.Hash())
	require.True(t, ok)
	assert.Equal(t, layout.RatchetPub, rec.RatchetPublic)
}

func TestRecallReconstructsIdentity(t *testing.T) {
	id, err := identity.Create()
	require.NoError(t, err)
	dest, err := destination.Create(id, destination.In, destination.Single, "app")
	require.NoError(t, err)
	pkt, err := dest.Announce([]byte("app-data"), false)
	require.NoError(t, err)

	cache := announce.New(10, nil)
	_, err = identity.ValidateAnnounce(cache, pkt, false, 5)
	require.NoError(t, err)

	recalled := identity.Recall(cache, dest.Hash())
	require.NotNil(t, recalled)
	assert.Equal(t, id.Hash(), recalled.Hash())
	assert.Equal(t, []byte("app-data"), identity.RecallAppData(cache, dest.Hash()))

	assert.Nil(t, identity.Recall(cache, []byte("unknown-hash-0")))
}
