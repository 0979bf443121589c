package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubkeyString(t *testing.T) {
	assert.Equal(t, "11111111111111111111111111111111", Pubkey{}.String())
}

func TestTryPubkeyFromBase58(t *testing.T) {
	const pump = "6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P"
	p, err := TryPubkeyFromBase58(pump)
	require.NoError(t, err)
	assert.Equal(t, pump, p.String())

	_, err = TryPubkeyFromBase58("0OIl")
	assert.Error(t, err)

	_, err = TryPubkeyFromBase58("1111")
	assert.Error(t, err)
}

func TestPubkeyFromBytes(t *testing.T) {
	_, err := PubkeyFromBytes(make([]byte, 31))
	assert.Error(t, err)

	raw := make([]byte, 32)
	raw[31] = 1
	p, err := PubkeyFromBytes(raw)
	require.NoError(t, err)
	assert.False(t, p.IsZero())
	assert.Equal(t, byte(1), p[31])
}
