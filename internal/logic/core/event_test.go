package core

import (
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldsMarshalKeepsOrder(t *testing.T) {
	f := Fields{{"z", "1"}, {"a", "say \"hi\""}, {"m", "é"}}
	out, err := f.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"z":"1","a":"say \"hi\"","m":"é"}`, string(out))

	empty, err := Fields(nil).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(empty))
}

func TestDecodedEventJSON(t *testing.T) {
	ev := &DecodedEvent{
		Kind:      "pumpfun_create",
		Signature: "sig",
		Slot:      "42",
		Roles:     Fields{{"mint", "M"}},
		Args:      Fields{{"name", "DOGE"}},
	}
	out, err := sonic.Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"pumpfun_create","signature":"sig","slot":"42","ix_index":0,
		"roles":{"mint":"M"},"args":{"name":"DOGE"}}`, string(out))
	assert.Equal(t, "M", ev.Mint())

	v, ok := ev.Args.Get("name")
	assert.True(t, ok)
	assert.Equal(t, "DOGE", v)
	_, ok = ev.Args.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, map[string]string{"name": "DOGE"}, ev.Args.Map())
}

func TestInnerOf(t *testing.T) {
	m := Message{Inner: []InnerGroup{{Index: 2, Instructions: []Instruction{{ProgramIndex: 1}}}}}
	assert.Len(t, m.InnerOf(2), 1)
	assert.Nil(t, m.InnerOf(0))
}
