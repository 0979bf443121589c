package eventparser

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"

	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/protocol"
	"pumpwatch-sol/internal/types"
)

// DeriveRoles 计算派生角色（PDA），种子取自已解析的角色与参数
func DeriveRoles(derived []protocol.DerivedRole, roles, args core.Fields) (core.Fields, error) {
	if len(derived) == 0 {
		return nil, nil
	}
	out := make(core.Fields, 0, len(derived))
	for _, d := range derived {
		seeds := make([][]byte, 0, len(d.Seeds))
		for _, s := range d.Seeds {
			seed, err := seedBytes(s, roles, args)
			if err != nil {
				return nil, &RoleResolutionError{Reason: DerivationFailed, Role: d.Name, Index: -1, Err: err}
			}
			seeds = append(seeds, seed)
		}
		pda, _, err := common.FindProgramAddress(seeds, common.PublicKey(d.Program))
		if err != nil {
			return nil, &RoleResolutionError{Reason: DerivationFailed, Role: d.Name, Index: -1, Err: err}
		}
		out = append(out, core.Field{Name: d.Name, Value: pda.ToBase58()})
	}
	return out, nil
}

func seedBytes(s protocol.Seed, roles, args core.Fields) ([]byte, error) {
	switch s.Source {
	case protocol.SeedText:
		return []byte(s.Value), nil
	case protocol.SeedKey:
		return s.Key[:], nil
	case protocol.SeedRole, protocol.SeedArg:
		src := roles
		if s.Source == protocol.SeedArg {
			src = args
		}
		v, ok := src.Get(s.Value)
		if !ok {
			return nil, fmt.Errorf("%s seed %q not resolved", s.Source, s.Value)
		}
		raw, err := base58.Decode(v)
		if err != nil || len(raw) != types.PubkeySize {
			return nil, fmt.Errorf("%s seed %q is not a pubkey", s.Source, s.Value)
		}
		return raw, nil
	}
	return nil, fmt.Errorf("unknown seed source %d", s.Source)
}
