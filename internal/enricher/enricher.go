// Package enricher 按解码出的 uri 拉取链下元数据 JSON，取出 image 字段。
// 不在解码关键路径上：失败或超时只影响补全结果，不影响已产出的事件。
package enricher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"pumpwatch-sol/internal/consts"
	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/pkg/logger"
)

var DefaultGateways = []string{
	"https://ipfs.io",
	"https://cloudflare-ipfs.com",
	"https://gateway.pinata.cloud",
}

const maxMetadataBytes = 1 << 20

// MetadataEmitter 接收补全结果
type MetadataEmitter interface {
	EmitMetadata(m *core.TokenMetadata)
}

type Enricher struct {
	client   *http.Client
	gateways []string
	timeout  time.Duration
	workers  int
	queue    chan *core.DecodedEvent
	out      MetadataEmitter
	group    singleflight.Group

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEnricher(gateways []string, timeout time.Duration, workers, queueSize int, out MetadataEmitter) *Enricher {
	if len(gateways) == 0 {
		gateways = DefaultGateways
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Enricher{
		client:   &http.Client{},
		gateways: gateways,
		timeout:  timeout,
		workers:  workers,
		queue:    make(chan *core.DecodedEvent, queueSize),
		out:      out,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Emit 事件入队，队列满时丢弃新事件，永不阻塞调用方
func (e *Enricher) Emit(ev *core.DecodedEvent) {
	if _, ok := ev.Args.Get("uri"); !ok {
		return
	}
	select {
	case e.queue <- ev:
	default:
		logger.Warnf("[Enricher] 队列已满，跳过元数据补全: tx=%s", ev.Signature)
	}
}

// Start 启动 worker 并阻塞到 Stop
func (e *Enricher) Start() {
	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	<-e.ctx.Done()
	e.wg.Wait()
}

func (e *Enricher) Stop() {
	e.cancel()
}

func (e *Enricher) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.ctx.Done():
			return
		case ev := <-e.queue:
			uri, _ := ev.Args.Get("uri")
			image := e.Enrich(e.ctx, uri)
			if e.ctx.Err() != nil {
				return
			}
			if e.out != nil {
				e.out.EmitMetadata(&core.TokenMetadata{
					Kind:      ev.Kind,
					Signature: ev.Signature,
					Mint:      ev.Mint(),
					URI:       uri,
					Image:     image,
				})
			}
		}
	}
}

// Enrich 依次尝试各候选地址，返回 image；全部失败返回 "unavailable"
func (e *Enricher) Enrich(ctx context.Context, uri string) string {
	if uri == "" {
		return consts.UnavailableImage
	}
	v, _, _ := e.group.Do(uri, func() (any, error) {
		for _, u := range candidateURLs(uri, e.gateways) {
			image, err := e.fetchImage(ctx, u)
			if err == nil {
				return image, nil
			}
			if ctx.Err() != nil {
				break
			}
			logger.Debugf("[Enricher] 网关失败，尝试下一个: url=%s, err=%v", u, err)
		}
		return consts.UnavailableImage, nil
	})
	return v.(string)
}

func (e *Enricher) fetchImage(parent context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(parent, e.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMetadataBytes))
	if err != nil {
		return "", err
	}
	var doc struct {
		Image string `json:"image"`
	}
	if err := sonic.Unmarshal(body, &doc); err != nil {
		return "", fmt.Errorf("decode metadata: %w", err)
	}
	if doc.Image == "" {
		return "", fmt.Errorf("metadata has no image")
	}
	return doc.Image, nil
}

// candidateURLs ipfs:// 与 /ipfs/ 路径按网关顺序展开；其余 http(s) 地址直接请求
func candidateURLs(uri string, gateways []string) []string {
	var path string
	var direct string
	switch {
	case strings.HasPrefix(uri, "ipfs://"):
		path = strings.TrimPrefix(strings.TrimPrefix(uri, "ipfs://"), "ipfs/")
	case strings.Contains(uri, "/ipfs/"):
		direct = uri
		path = uri[strings.Index(uri, "/ipfs/")+len("/ipfs/"):]
	case strings.HasPrefix(uri, "http://"), strings.HasPrefix(uri, "https://"):
		return []string{uri}
	default:
		return nil
	}
	if path == "" {
		return nil
	}

	out := make([]string, 0, len(gateways)+1)
	seen := make(map[string]bool, len(gateways)+1)
	if direct != "" && (strings.HasPrefix(direct, "http://") || strings.HasPrefix(direct, "https://")) {
		out = append(out, direct)
		seen[direct] = true
	}
	for _, gw := range gateways {
		u := strings.TrimRight(gw, "/") + "/ipfs/" + path
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
