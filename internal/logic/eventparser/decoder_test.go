package eventparser

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/protocol"
	"pumpwatch-sol/internal/types"
)

// Scenario A
func TestDecodeArgsCreate(t *testing.T) {
	data := createPayload("DOGE", "DOGE", "ipfs://abc", types.Pubkey{})
	fields, err := DecodeArgs(data, pumpCreateKind().Args)
	require.NoError(t, err)
	assert.Equal(t, core.Fields{
		{Name: "name", Value: "DOGE"},
		{Name: "symbol", Value: "DOGE"},
		{Name: "uri", Value: "ipfs://abc"},
		{Name: "creator", Value: "11111111111111111111111111111111"},
	}, fields)
}

// Scenario C
func TestDecodeArgsThreeBytesAfterDiscriminator(t *testing.T) {
	data := append(append([]byte{}, createDisc...), 1, 2, 3)
	_, err := DecodeArgs(data, pumpCreateKind().Args)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, Truncated, de.Reason)
	assert.Equal(t, "name", de.Field)
	assert.Equal(t, uint64(4), de.Need)
	assert.Equal(t, uint64(3), de.Have)
}

func TestDecodeArgsShortDiscriminator(t *testing.T) {
	_, err := DecodeArgs([]byte{1, 2}, nil)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, Truncated, de.Reason)
	assert.Equal(t, "discriminator", de.Field)
}

func TestDecodeArgsTruncatedEverywhere(t *testing.T) {
	creator := types.Pubkey(keyN(9))
	data := createPayload("Pepe Coin", "PEPE", "https://example.com/meta.json", creator)
	args := pumpCreateKind().Args

	for k := 0; k < len(data); k++ {
		// cap 限制为 k，越界读取会直接 panic
		prefix := data[:k:k]
		require.NotPanics(t, func() {
			_, err := DecodeArgs(prefix, args)
			var de *DecodeError
			if !assert.True(t, errors.As(err, &de), "k=%d err=%v", k, err) {
				return
			}
			assert.Equal(t, Truncated, de.Reason, "k=%d", k)
			assert.LessOrEqual(t, uint64(de.Offset)+de.Have, uint64(k))
		})
	}
}

func TestDecodeArgsHugeLength(t *testing.T) {
	data := append([]byte{}, createDisc...)
	data = append(data, 0xff, 0xff, 0xff, 0xff, 'a')
	_, err := DecodeArgs(data, pumpCreateKind().Args)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, uint64(0xffffffff), de.Need)
	assert.Equal(t, uint64(1), de.Have)
}

func TestDecodeArgsTrailingBytesIgnored(t *testing.T) {
	data := createPayload("a", "b", "c", types.Pubkey{})
	withTail := append(append([]byte{}, data...), 0xde, 0xad, 0xbe, 0xef)

	want, err := DecodeArgs(data, pumpCreateKind().Args)
	require.NoError(t, err)
	got, err := DecodeArgs(withTail, pumpCreateKind().Args)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeArgsInvalidUTF8(t *testing.T) {
	data := append([]byte{}, createDisc...)
	data = append(data, encodeString("ok\xffgo")...)
	fields, err := DecodeArgs(data, []protocol.Arg{{Name: "name", Type: protocol.ArgString}})
	require.NoError(t, err)
	assert.Equal(t, "ok\uFFFDgo", fields[0].Value)
}

func TestDecodeArgsScalarTypes(t *testing.T) {
	data := append([]byte{}, createDisc...)
	data = append(data, 7)
	data = binary.LittleEndian.AppendUint64(data, 1_000_000_000)
	data = append(data, 1, 0)

	fields, err := DecodeArgs(data, []protocol.Arg{
		{Name: "decimals", Type: protocol.ArgU8},
		{Name: "amount", Type: protocol.ArgU64},
		{Name: "a", Type: protocol.ArgBool},
		{Name: "b", Type: protocol.ArgBool},
	})
	require.NoError(t, err)
	assert.Equal(t, core.Fields{
		{Name: "decimals", Value: "7"},
		{Name: "amount", Value: "1000000000"},
		{Name: "a", Value: "true"},
		{Name: "b", Value: "false"},
	}, fields)

	_, err = DecodeArgs(createDisc, []protocol.Arg{{Name: "x", Type: "i128"}})
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, UnknownType, de.Reason)
}

type createArgs struct {
	Name    string
	Symbol  string
	Uri     string
	Creator types.Pubkey
}

func TestDecodeArgsRoundTrip(t *testing.T) {
	cases := []createArgs{
		{Name: "DOGE", Symbol: "DOGE", Uri: "ipfs://abc"},
		{Name: "", Symbol: "", Uri: ""},
		{Name: "狗狗币", Symbol: "🐶", Uri: "https://ipfs.io/ipfs/QmX", Creator: types.Pubkey(keyN(3))},
	}
	for _, c := range cases {
		body, err := borsh.Serialize(c)
		require.NoError(t, err)
		data := append(append([]byte{}, createDisc...), body...)

		first, err := DecodeArgs(data, pumpCreateKind().Args)
		require.NoError(t, err)
		second, err := DecodeArgs(data, pumpCreateKind().Args)
		require.NoError(t, err)
		assert.Equal(t, first, second)

		// 用解码结果重新编码，应还原原始字节
		var back createArgs
		back.Name, _ = first.Get("name")
		back.Symbol, _ = first.Get("symbol")
		back.Uri, _ = first.Get("uri")
		creator, _ := first.Get("creator")
		raw, err := base58.Decode(creator)
		require.NoError(t, err)
		back.Creator = types.Pubkey(raw)

		reencoded, err := borsh.Serialize(back)
		require.NoError(t, err)
		assert.Equal(t, body, reencoded)
	}
}
