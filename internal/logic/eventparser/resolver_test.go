package eventparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpwatch-sol/internal/consts"
	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/protocol"
	"pumpwatch-sol/internal/types"
)

func TestResolveRoles(t *testing.T) {
	msg := createMessage(createDisc)
	roles, err := ResolveRoles(msg.Instructions[0], msg.AccountKeys, pumpCreateKind().Roles)
	require.NoError(t, err)

	key := func(i int) string { return types.Pubkey(msg.AccountKeys[i]).String() }
	assert.Equal(t, core.Fields{
		{Name: "mint", Value: key(0)},
		{Name: "bonding_curve", Value: key(2)},
		{Name: "associated_bonding_curve", Value: key(3)},
		{Name: "user", Value: key(7)},
	}, roles)
}

// Scenario D
func TestResolveRolesKeyIndexOutOfRange(t *testing.T) {
	ix := core.Instruction{AccountIndexes: []byte{5}}
	keys := [][]byte{keyN(1), keyN(2), keyN(3)}

	_, err := ResolveRoles(ix, keys, []protocol.Role{{Name: "mint", Index: 0}})
	var re *RoleResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, KeyIndexOutOfRange, re.Reason)
	assert.Equal(t, "mint", re.Role)
	assert.Equal(t, 5, re.Index)
	assert.Equal(t, 3, re.Len)
}

func TestResolveRolesIndexSafety(t *testing.T) {
	keys := [][]byte{keyN(1), keyN(2), keyN(3)}
	cases := []struct {
		name   string
		ix     core.Instruction
		roles  []protocol.Role
		reason RoleReason
	}{
		{"position past end", core.Instruction{AccountIndexes: []byte{0, 1}}, []protocol.Role{{Name: "r", Index: 2}}, IndexOutOfRange},
		{"no accounts", core.Instruction{}, []protocol.Role{{Name: "r", Index: 0}}, IndexOutOfRange},
		{"negative position", core.Instruction{AccountIndexes: []byte{0}}, []protocol.Role{{Name: "r", Index: -1}}, IndexOutOfRange},
		{"key past end", core.Instruction{AccountIndexes: []byte{0, 3}}, []protocol.Role{{Name: "a", Index: 0}, {Name: "b", Index: 1}}, KeyIndexOutOfRange},
		{"max index", core.Instruction{AccountIndexes: []byte{255}}, []protocol.Role{{Name: "r", Index: 0}}, KeyIndexOutOfRange},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.NotPanics(t, func() {
				_, err := ResolveRoles(c.ix, keys, c.roles)
				var re *RoleResolutionError
				if assert.ErrorAs(t, err, &re) {
					assert.Equal(t, c.reason, re.Reason)
				}
			})
		})
	}
}

func TestResolveRolesMalformedKey(t *testing.T) {
	keys := [][]byte{keyN(1), {1, 2, 3}}
	_, err := ResolveRoles(core.Instruction{AccountIndexes: []byte{1}}, keys, []protocol.Role{{Name: "mint", Index: 0}})
	var re *RoleResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, MalformedKeyTable, re.Reason)
	assert.Contains(t, re.Error(), "key_len=3")
}

func TestProgramOf(t *testing.T) {
	msg := createMessage(createDisc)
	p, ok := ProgramOf(msg.Instructions[0], msg.AccountKeys)
	require.True(t, ok)
	assert.Equal(t, consts.PumpFunProgram, p)

	_, ok = ProgramOf(core.Instruction{ProgramIndex: 99}, msg.AccountKeys)
	assert.False(t, ok)
}
