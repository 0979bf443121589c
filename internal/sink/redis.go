package sink

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"pumpwatch-sol/internal/logic/core"
)

// RedisStreamSink XADD 到 Redis Stream，近似裁剪到 maxLen
type RedisStreamSink struct {
	client redis.UniversalClient
	stream string
	maxLen int64
}

func NewRedisStreamSink(client redis.UniversalClient, stream string, maxLen int64) *RedisStreamSink {
	return &RedisStreamSink{client: client, stream: stream, maxLen: maxLen}
}

func (s *RedisStreamSink) Name() string { return "redis" }

func (s *RedisStreamSink) Accept(ctx context.Context, ev *core.DecodedEvent) error {
	body, err := sonic.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return s.xadd(ctx, map[string]any{
		"type":      "token_created",
		"signature": ev.Signature,
		"slot":      ev.Slot,
		"kind":      ev.Kind,
		"mint":      ev.Mint(),
		"event":     string(body),
	})
}

func (s *RedisStreamSink) AcceptMetadata(ctx context.Context, m *core.TokenMetadata) error {
	return s.xadd(ctx, map[string]any{
		"type":      "metadata",
		"signature": m.Signature,
		"kind":      m.Kind,
		"mint":      m.Mint,
		"image":     m.Image,
	})
}

func (s *RedisStreamSink) xadd(ctx context.Context, values map[string]any) error {
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

func (s *RedisStreamSink) Close() error {
	return s.client.Close()
}
