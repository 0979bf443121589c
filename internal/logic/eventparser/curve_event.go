package eventparser

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/near/borsh-go"

	"pumpwatch-sol/internal/consts"
	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/protocol"
	"pumpwatch-sol/internal/types"
)

// AnchorEventTag Anchor self-CPI 事件指令的固定前缀（emit_cpi!）
const AnchorEventTag uint64 = 0xe445a52e51cb9a1d

// createEvent pump.fun CreateEvent 的 borsh 布局（不含 16 字节前缀）
type createEvent struct {
	Name                 string
	Symbol               string
	Uri                  string
	Mint                 types.Pubkey
	BondingCurve         types.Pubkey
	User                 types.Pubkey
	Creator              types.Pubkey
	Timestamp            int64
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	TokenTotalSupply     uint64
}

var errEventNotFound = errors.New("event instruction not found")

// DecodeCurveEvent 在第 ixIndex 条主指令的 inner 指令中查找 self-CPI 事件，
// 解出 bonding curve 初始快照；找不到事件时返回 errEventNotFound。
func DecodeCurveEvent(kind *protocol.Kind, msg *core.Message, ixIndex int, mint string) (*core.CurveState, error) {
	if kind.Event == nil {
		return nil, errEventNotFound
	}
	for _, inner := range msg.InnerOf(ixIndex) {
		if len(inner.Data) < 2*consts.DiscriminatorSize {
			continue
		}
		if binary.BigEndian.Uint64(inner.Data[:8]) != AnchorEventTag {
			continue
		}
		if [consts.DiscriminatorSize]byte(inner.Data[8:16]) != kind.Event.Discriminator {
			continue
		}
		if kind.ProgramID != nil {
			if p, ok := ProgramOf(inner, msg.AccountKeys); !ok || p != *kind.ProgramID {
				continue
			}
		}
		return decodeCreateEvent(inner.Data[16:], mint)
	}
	return nil, errEventNotFound
}

func decodeCreateEvent(payload []byte, mint string) (*core.CurveState, error) {
	// 先按边界检查走一遍变长字段，避免 borsh 按恶意长度分配内存
	c := &cursor{buf: payload}
	if _, err := c.fields(createEventLayout); err != nil {
		return nil, err
	}

	var ev createEvent
	if err := borsh.Deserialize(&ev, payload); err != nil {
		return nil, fmt.Errorf("borsh decode create event: %w", err)
	}
	if mint != "" && ev.Mint.String() != mint {
		return nil, fmt.Errorf("event mint mismatch: expected=%s, got=%s", mint, ev.Mint)
	}
	return &core.CurveState{
		Timestamp:            ev.Timestamp,
		VirtualTokenReserves: ev.VirtualTokenReserves,
		VirtualSolReserves:   ev.VirtualSolReserves,
		RealTokenReserves:    ev.RealTokenReserves,
		TokenTotalSupply:     ev.TokenTotalSupply,
	}, nil
}

var createEventLayout = []protocol.Arg{
	{Name: "name", Type: protocol.ArgString},
	{Name: "symbol", Type: protocol.ArgString},
	{Name: "uri", Type: protocol.ArgString},
	{Name: "mint", Type: protocol.ArgPubkey},
	{Name: "bonding_curve", Type: protocol.ArgPubkey},
	{Name: "user", Type: protocol.ArgPubkey},
	{Name: "creator", Type: protocol.ArgPubkey},
	{Name: "timestamp", Type: protocol.ArgU64},
	{Name: "virtual_token_reserves", Type: protocol.ArgU64},
	{Name: "virtual_sol_reserves", Type: protocol.ArgU64},
	{Name: "real_token_reserves", Type: protocol.ArgU64},
	{Name: "token_total_supply", Type: protocol.ArgU64},
}

func IsEventNotFound(err error) bool {
	return errors.Is(err, errEventNotFound)
}
