package eventparser

import (
	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/protocol"
	"pumpwatch-sol/internal/types"
)

// ResolveRoles 将角色位置解析为 base58 地址，输出顺序与 roles 一致。
// 任何越界都返回 *RoleResolutionError，不会 panic。
func ResolveRoles(ix core.Instruction, accountKeys [][]byte, roles []protocol.Role) (core.Fields, error) {
	out := make(core.Fields, 0, len(roles))
	for _, r := range roles {
		if r.Index < 0 || r.Index >= len(ix.AccountIndexes) {
			return nil, &RoleResolutionError{
				Reason:   IndexOutOfRange,
				Role:     r.Name,
				Position: r.Index,
				Index:    -1,
				Len:      len(ix.AccountIndexes),
			}
		}
		i := int(ix.AccountIndexes[r.Index])
		key, err := keyAt(accountKeys, i)
		if err != nil {
			err.Role = r.Name
			err.Position = r.Index
			return nil, err
		}
		out = append(out, core.Field{Name: r.Name, Value: key.String()})
	}
	return out, nil
}

// ProgramOf 返回指令的程序地址；账户表越界或条目异常时 ok=false
func ProgramOf(ix core.Instruction, accountKeys [][]byte) (types.Pubkey, bool) {
	key, err := keyAt(accountKeys, int(ix.ProgramIndex))
	if err != nil {
		return types.Pubkey{}, false
	}
	return key, true
}

func keyAt(accountKeys [][]byte, i int) (types.Pubkey, *RoleResolutionError) {
	if i < 0 || i >= len(accountKeys) {
		return types.Pubkey{}, &RoleResolutionError{Reason: KeyIndexOutOfRange, Index: i, Len: len(accountKeys)}
	}
	raw := accountKeys[i]
	if len(raw) != types.PubkeySize {
		return types.Pubkey{}, &RoleResolutionError{Reason: MalformedKeyTable, Index: i, Len: len(raw)}
	}
	return types.Pubkey(raw), nil
}
