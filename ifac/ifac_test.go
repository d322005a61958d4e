package ifac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveReturnsNilWithoutNetnameOrNetkey(t *testing.T) {
	creds, err := Derive("", "")
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestDeriveIsDeterministic(t *testing.T) {
	tests := []struct {
		name    string
		netname string
		netkey  string
	}{
		{"netname only", "mynet", ""},
		{"netkey only", "", "secretkey"},
		{"both", "mynet", "secretkey"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Derive(tt.netname, tt.netkey)
			require.NoError(t, err)
			require.NotNil(t, a)

			b, err := Derive(tt.netname, tt.netkey)
			require.NoError(t, err)
			require.NotNil(t, b)

			assert.True(t, a.Equal(b))
			assert.Equal(t, a.KeyBytes(), b.KeyBytes())
		})
	}
}

func TestDeriveDistinguishesNetworks(t *testing.T) {
	a, err := Derive("alpha", "key")
	require.NoError(t, err)
	b, err := Derive("beta", "key")
	require.NoError(t, err)

	assert.False(t, a.Equal(b))
}

func TestSignAndVerify(t *testing.T) {
	creds, err := Derive("mynet", "netkey")
	require.NoError(t, err)
	require.NotNil(t, creds)

	msg := []byte("packet bytes go here")
	sig, err := creds.Sign(msg)
	require.NoError(t, err)
	assert.True(t, creds.Verify(msg, sig))

	tampered := append([]byte(nil), msg...)
	tampered[0] ^= 0xff
	assert.False(t, creds.Verify(tampered, sig))
}

func TestVerifyRejectsForeignNetworkSignature(t *testing.T) {
	a, err := Derive("alpha", "key")
	require.NoError(t, err)
	b, err := Derive("beta", "key")
	require.NoError(t, err)

	msg := []byte("hello")
	sig, err := a.Sign(msg)
	require.NoError(t, err)

	assert.False(t, b.Verify(msg, sig))
}

func TestEqualHandlesNil(t *testing.T) {
	creds, err := Derive("mynet", "netkey")
	require.NoError(t, err)

	assert.False(t, creds.Equal(nil))

	var nilCreds *Credentials
	assert.True(t, nilCreds.Equal(nil))
}
