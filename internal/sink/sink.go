// Package sink 解码结果的输出端。
// 投递失败只返回 error 由调用方记录，不影响解码流程。
package sink

import (
	"context"

	"pumpwatch-sol/internal/logic/core"
)

type Sink interface {
	Name() string
	Accept(ctx context.Context, ev *core.DecodedEvent) error
	Close() error
}

// MetadataSink 可选接口：同时接收元数据补全结果
type MetadataSink interface {
	AcceptMetadata(ctx context.Context, m *core.TokenMetadata) error
}
