package ratchet

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHash() []byte {
	return []byte("dest-hash-16byt!")
}

func TestLoadReturnsNilWhenAbsent(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)

	r, err := store.Load(testHash())
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestRotatePersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenStore(dir)
	require.NoError(t, err)

	r1, err := store.Rotate(testHash())
	require.NoError(t, err)
	require.NotNil(t, r1)

	fresh, err := OpenStore(dir)
	require.NoError(t, err)
	loaded, err := fresh.Load(testHash())
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, r1.PublicKey(), loaded.PublicKey())
	assert.Equal(t, r1.ActivatedAt, loaded.ActivatedAt)
}

func TestRotateChangesKeyOnEachCall(t *testing.T) {
	store, err := OpenStore(t.TempDir())
	require.NoError(t, err)

	r1, err := store.Rotate(testHash())
	require.NoError(t, err)
	r2, err := store.Rotate(testHash())
	require.NoError(t, err)

	assert.NotEqual(t, r1.PublicKey(), r2.PublicKey())
}

func TestLoadDiscardsCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenStore(dir)
	require.NoError(t, err)

	hash := testHash()
	filePath := store.path(hash)
	require.NoError(t, os.WriteFile(filePath, []byte("not a valid record"), 0o600))

	r, err := store.Load(hash)
	require.NoError(t, err)
	assert.Nil(t, r, "a corrupt record should be discarded, not returned or errored")
}

func TestLoadServesRotatedRatchetFromMemory(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenStore(dir)
	require.NoError(t, err)
	hash := testHash()

	original, err := store.Rotate(hash)
	require.NoError(t, err)

	require.NoError(t, os.Remove(store.path(hash)))

	loaded, err := store.Load(hash)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, original.PublicKey(), loaded.PublicKey())
}
