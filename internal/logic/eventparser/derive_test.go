package eventparser

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpwatch-sol/internal/consts"
	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/protocol"
	"pumpwatch-sol/internal/types"
)

func TestDeriveCreatorVault(t *testing.T) {
	creator := types.Pubkey(keyN(42))
	args := core.Fields{{Name: "creator", Value: creator.String()}}

	out, err := DeriveRoles(pumpCreateKind().Derived, nil, args)
	require.NoError(t, err)
	require.Len(t, out, 1)

	want, _, err := common.FindProgramAddress(
		[][]byte{[]byte("creator-vault"), creator[:]},
		common.PublicKey(consts.PumpFunProgram),
	)
	require.NoError(t, err)
	assert.Equal(t, "creator_vault", out[0].Name)
	assert.Equal(t, want.ToBase58(), out[0].Value)
}

func TestDeriveFromRoleAndKey(t *testing.T) {
	mint := types.Pubkey(keyN(5))
	derived := []protocol.DerivedRole{{
		Name:    "pda",
		Program: consts.PumpFunProgram,
		Seeds: []protocol.Seed{
			{Source: protocol.SeedText, Value: "bonding-curve"},
			{Source: protocol.SeedRole, Value: "mint"},
			{Source: protocol.SeedKey, Key: consts.TokenProgram},
		},
	}}
	out, err := DeriveRoles(derived, core.Fields{{Name: "mint", Value: mint.String()}}, nil)
	require.NoError(t, err)

	want, _, err := common.FindProgramAddress(
		[][]byte{[]byte("bonding-curve"), mint[:], consts.TokenProgram[:]},
		common.PublicKey(consts.PumpFunProgram),
	)
	require.NoError(t, err)
	assert.Equal(t, want.ToBase58(), out[0].Value)
}

func TestDeriveMissingSeed(t *testing.T) {
	_, err := DeriveRoles(pumpCreateKind().Derived, nil, core.Fields{{Name: "creator", Value: "not-base58-0OIl"}})
	var re *RoleResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, DerivationFailed, re.Reason)
	assert.Equal(t, "creator_vault", re.Role)

	_, err = DeriveRoles(pumpCreateKind().Derived, nil, nil)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, DerivationFailed, re.Reason)

	out, err := DeriveRoles(nil, nil, nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
}
