package tools

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"

	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/logic/eventparser"
	"pumpwatch-sol/internal/protocol"
)

// DecodeResult 离线解码一条指令 data 的结果
type DecodeResult struct {
	Kind          string      `json:"kind"`
	Discriminator string      `json:"discriminator"`
	Args          core.Fields `json:"args"`
}

var ErrNotMatched = errors.New("data does not match any configured discriminator")

// ParsePayload 识别 hex（可带 0x 前缀）或标准 base64
func ParsePayload(input string) ([]byte, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, errors.New("empty payload")
	}
	if h, ok := strings.CutPrefix(s, "0x"); ok {
		return hex.DecodeString(h)
	}
	if len(s)%2 == 0 {
		if b, err := hex.DecodeString(s); err == nil {
			return b, nil
		}
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return nil, errors.New("payload is neither hex nor base64")
}

// DecodePayload 只做方法 ID 匹配和参数解码，不涉及账户
func DecodePayload(table *protocol.Table, data []byte) (*DecodeResult, error) {
	kind, ok := eventparser.NewMatcher(table).Match(core.Instruction{Data: data})
	if !ok {
		return nil, ErrNotMatched
	}
	args, err := eventparser.DecodeArgs(data, kind.Args)
	if err != nil {
		return nil, err
	}
	return &DecodeResult{
		Kind:          kind.Name,
		Discriminator: hex.EncodeToString(kind.Discriminator[:]),
		Args:          args,
	}, nil
}
