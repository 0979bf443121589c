package eventparser

import (
	"pumpwatch-sol/internal/consts"
	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/protocol"
)

// Matcher 按 8 字节方法 ID 识别被跟踪的指令，无状态，可并发使用
type Matcher struct {
	table *protocol.Table
}

func NewMatcher(table *protocol.Table) *Matcher {
	return &Matcher{table: table}
}

// Match 返回命中的指令类型。data 不足 8 字节时直接返回 false。
func (m *Matcher) Match(ix core.Instruction) (*protocol.Kind, bool) {
	if len(ix.Data) < consts.DiscriminatorSize {
		return nil, false
	}
	return m.table.Lookup([consts.DiscriminatorSize]byte(ix.Data[:consts.DiscriminatorSize]))
}

func (m *Matcher) Matches(ix core.Instruction) bool {
	_, ok := m.Match(ix)
	return ok
}
