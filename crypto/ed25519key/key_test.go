package ed25519key

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	priv, pub, err := New()
	require.NoError(t, err)

	tests := []struct {
		name string
		msg  []byte
	}{
		{"non-empty message", []byte("announce payload")},
		{"empty message", []byte{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Sign(priv, tt.msg)
			assert.Len(t, sig, SignatureSize)
			assert.True(t, Verify(pub, tt.msg, sig))

			wrongMsg := append(append([]byte(nil), tt.msg...), 'x')
			assert.False(t, Verify(pub, wrongMsg, sig))
		})
	}
}

func TestVerifyRejectsWrongSizedInputs(t *testing.T) {
	_, pub, err := New()
	require.NoError(t, err)

	assert.False(t, Verify(pub[:len(pub)-1], []byte("msg"), make([]byte, SignatureSize)))
	assert.False(t, Verify(pub, []byte("msg"), make([]byte, SignatureSize-1)))
}

func TestFromSeedIsDeterministic(t *testing.T) {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = byte(i)
	}

	priv1, pub1, err := FromSeed(seed)
	require.NoError(t, err)
	priv2, pub2, err := FromSeed(seed)
	require.NoError(t, err)

	assert.Equal(t, priv1, priv2)
	assert.Equal(t, pub1, pub2)
}

func TestFromSeedRejectsWrongLength(t *testing.T) {
	_, _, err := FromSeed(make([]byte, SeedSize-1))
	assert.ErrorIs(t, err, ErrMalformedSeed)
}
