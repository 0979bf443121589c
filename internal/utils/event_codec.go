package utils

import (
	"encoding/binary"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"pumpwatch-sol/internal/logic/core"
)

const eventTypeSize = 4

// EncodeEvent 将 protobuf 消息编码为带事件类型前缀的二进制数据：
// - 前 4 字节为事件类型（uint32，小端序）
// - 后续为确定性 protobuf 序列化数据
func EncodeEvent(eventType uint32, msg proto.Message) ([]byte, error) {
	buf := make([]byte, eventTypeSize, eventTypeSize+proto.Size(msg))
	binary.LittleEndian.PutUint32(buf, eventType)

	opts := proto.MarshalOptions{Deterministic: true}
	out, err := opts.MarshalAppend(buf, msg)
	if err != nil {
		return nil, fmt.Errorf("EncodeEvent: marshal %T: %w", msg, err)
	}
	return out, nil
}

// DecodeEvent 是 EncodeEvent 的逆过程，msg 为接收解码结果的空消息
func DecodeEvent(data []byte, msg proto.Message) (uint32, error) {
	if len(data) < eventTypeSize {
		return 0, fmt.Errorf("DecodeEvent: payload too short: %d", len(data))
	}
	if err := proto.Unmarshal(data[eventTypeSize:], msg); err != nil {
		return 0, fmt.Errorf("DecodeEvent: unmarshal %T: %w", msg, err)
	}
	return binary.LittleEndian.Uint32(data[:eventTypeSize]), nil
}

// EventStruct 将解码结果转换为 structpb.Struct，供 Kafka 等二进制通道使用
func EventStruct(ev *core.DecodedEvent) (*structpb.Struct, error) {
	fields := map[string]any{
		"kind":      ev.Kind,
		"signature": ev.Signature,
		"slot":      ev.Slot,
		"ix_index":  ev.IxIndex,
		"roles":     fieldsMap(ev.Roles),
		"args":      fieldsMap(ev.Args),
	}
	if c := ev.Curve; c != nil {
		// u64 超出 float64 精度，统一以十进制字符串保存
		fields["curve"] = map[string]any{
			"timestamp":              c.Timestamp,
			"virtual_token_reserves": fmt.Sprint(c.VirtualTokenReserves),
			"virtual_sol_reserves":   fmt.Sprint(c.VirtualSolReserves),
			"real_token_reserves":    fmt.Sprint(c.RealTokenReserves),
			"token_total_supply":     fmt.Sprint(c.TokenTotalSupply),
		}
	}
	return structpb.NewStruct(fields)
}

// MetadataStruct 元数据补全结果的 structpb 表示
func MetadataStruct(m *core.TokenMetadata) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"kind":      m.Kind,
		"signature": m.Signature,
		"mint":      m.Mint,
		"uri":       m.URI,
		"image":     m.Image,
	})
}

func fieldsMap(f core.Fields) map[string]any {
	m := make(map[string]any, len(f))
	for _, kv := range f {
		m[kv.Name] = kv.Value
	}
	return m
}
