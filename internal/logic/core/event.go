package core

import (
	"bytes"

	"github.com/bytedance/sonic"
)

// Field 有序字段表中的一项
type Field struct {
	Name  string
	Value string
}

// Fields 按声明顺序排列的 name → value 列表，JSON 编码时保持顺序
type Fields []Field

func (f Fields) Get(name string) (string, bool) {
	for _, kv := range f {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}

// Map 转为无序 map，便于序列化到不关心顺序的存储
func (f Fields) Map() map[string]string {
	m := make(map[string]string, len(f))
	for _, kv := range f {
		m[kv.Name] = kv.Value
	}
	return m
}

func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, kv := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := sonic.Marshal(kv.Name)
		if err != nil {
			return nil, err
		}
		v, err := sonic.Marshal(kv.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// CurveState 发币时 bonding curve 的初始快照，来自 self-CPI 的 CreateEvent
type CurveState struct {
	Timestamp            int64  `json:"timestamp"`
	VirtualTokenReserves uint64 `json:"virtual_token_reserves"`
	VirtualSolReserves   uint64 `json:"virtual_sol_reserves"`
	RealTokenReserves    uint64 `json:"real_token_reserves"`
	TokenTotalSupply     uint64 `json:"token_total_supply"`
}

// DecodedEvent 一条命中指令的解码结果。
// 不持有源交易的任何引用，Roles/Args 的字段集合由协议表决定。
type DecodedEvent struct {
	Kind      string      `json:"kind"`
	Signature string      `json:"signature"`
	Slot      string      `json:"slot"`
	IxIndex   int         `json:"ix_index"`
	Roles     Fields      `json:"roles"`
	Args      Fields      `json:"args"`
	Curve     *CurveState `json:"curve,omitempty"`
}

// Mint 返回 mint 角色，没有时为空串
func (e *DecodedEvent) Mint() string {
	v, _ := e.Roles.Get("mint")
	return v
}

// TokenMetadata 元数据补全结果
type TokenMetadata struct {
	Kind      string `json:"kind"`
	Signature string `json:"signature"`
	Mint      string `json:"mint"`
	URI       string `json:"uri"`
	Image     string `json:"image"`
}

// 事件类型，写入 Kafka 消息头部用于下游区分
const (
	EventTypeTokenCreated  uint32 = 1
	EventTypeTokenMetadata uint32 = 2
)
