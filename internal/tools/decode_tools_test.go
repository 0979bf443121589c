package tools

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpwatch-sol/internal/consts"
	"pumpwatch-sol/internal/logic/eventparser"
	"pumpwatch-sol/internal/protocol"
)

func createData(name, symbol, uri string, creator []byte) []byte {
	data := []byte{24, 30, 200, 40, 5, 28, 7, 119}
	for _, s := range []string{name, symbol, uri} {
		data = binary.LittleEndian.AppendUint32(data, uint32(len(s)))
		data = append(data, s...)
	}
	return append(data, creator...)
}

func TestParsePayload(t *testing.T) {
	raw := createData("DOGE", "DOGE", "ipfs://abc", make([]byte, 32))

	for name, input := range map[string]string{
		"hex":        hex.EncodeToString(raw),
		"hex prefix": "0x" + hex.EncodeToString(raw),
		"base64":     base64.StdEncoding.EncodeToString(raw),
		"padded":     "  " + base64.StdEncoding.EncodeToString(raw) + "\n",
	} {
		t.Run(name, func(t *testing.T) {
			got, err := ParsePayload(input)
			require.NoError(t, err)
			assert.Equal(t, raw, got)
		})
	}

	_, err := ParsePayload("")
	assert.Error(t, err)
	_, err = ParsePayload("not a payload!")
	assert.Error(t, err)
}

func TestDecodePayload(t *testing.T) {
	res, err := DecodePayload(protocol.Default(), createData("DOGE", "DOGE", "ipfs://abc", make([]byte, 32)))
	require.NoError(t, err)
	assert.Equal(t, "pumpfun_create", res.Kind)
	assert.Equal(t, "181ec828051c0777", res.Discriminator)

	uri, _ := res.Args.Get("uri")
	assert.Equal(t, "ipfs://abc", uri)
	creator, _ := res.Args.Get("creator")
	assert.Equal(t, consts.SystemProgramStr, creator)
}

func TestDecodePayloadErrors(t *testing.T) {
	_, err := DecodePayload(protocol.Default(), []byte{1, 2, 3, 4, 5, 6, 7, 8, 9})
	assert.ErrorIs(t, err, ErrNotMatched)

	_, err = DecodePayload(protocol.Default(), []byte{24, 30, 200, 40, 5, 28, 7, 119, 5, 0})
	var decErr *eventparser.DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, eventparser.Truncated, decErr.Reason)
}
