package sink

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"

	"pumpwatch-sol/internal/logic/core"
)

// JsonlSink 每条记录一行 JSON，追加写入
type JsonlSink struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

func NewJsonlSink(path string) (*JsonlSink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open output file: %w", err)
	}
	return &JsonlSink{file: f, w: bufio.NewWriter(f)}, nil
}

func (s *JsonlSink) Name() string { return "file" }

func (s *JsonlSink) Accept(_ context.Context, ev *core.DecodedEvent) error {
	return s.writeLine(ev)
}

type metadataRecord struct {
	Type string `json:"type"`
	*core.TokenMetadata
}

func (s *JsonlSink) AcceptMetadata(_ context.Context, m *core.TokenMetadata) error {
	return s.writeLine(metadataRecord{Type: "metadata", TokenMetadata: m})
}

func (s *JsonlSink) writeLine(v any) error {
	line, err := sonic.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	// 每条都刷盘，进程被杀也不丢已确认的记录
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

func (s *JsonlSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		_ = s.file.Close()
		return err
	}
	return s.file.Close()
}
