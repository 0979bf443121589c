package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/bytedance/sonic"

	"pumpwatch-sol/internal/logic/core"
)

const banner = "===============================================new mint detected !==============================================="

// ConsoleSink 打印到标准输出
type ConsoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

func NewConsoleSink(out io.Writer) *ConsoleSink {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleSink{out: out}
}

func (s *ConsoleSink) Name() string { return "console" }

func (s *ConsoleSink) Accept(_ context.Context, ev *core.DecodedEvent) error {
	body, err := sonic.ConfigStd.MarshalIndent(ev, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = fmt.Fprintf(s.out, "%s\n%s\n\n", banner, body)
	return err
}

func (s *ConsoleSink) AcceptMetadata(_ context.Context, m *core.TokenMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.out, "metadata mint=%s image=%s\n", m.Mint, m.Image)
	return err
}

func (s *ConsoleSink) Close() error { return nil }
