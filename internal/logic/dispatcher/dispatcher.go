package dispatcher

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/sink"
	"pumpwatch-sol/pkg/logger"
)

type DropPolicy string

const (
	DropOldest DropPolicy = "drop_oldest" // 队列满时丢弃最早的一条
	DropNewest DropPolicy = "drop_newest" // 队列满时丢弃新来的一条
)

type item struct {
	event *core.DecodedEvent
	meta  *core.TokenMetadata
}

// Dispatcher 解码结果与 sink 之间的有界队列。
// 入队永不阻塞；单个 goroutine 顺序投递，输出顺序与入队顺序一致。
type Dispatcher struct {
	mu           sync.Mutex // 串行化入队，保证 drop_oldest 的取出与放入成对
	queue        chan item
	policy       DropPolicy
	sinks        []sink.Sink
	sinkTimeout  time.Duration
	drainTimeout time.Duration

	dropped atomic.Uint64

	lifeMu  sync.Mutex
	started bool
	stopped bool
	stopCh  chan struct{}
	done    chan struct{}
}

func NewDispatcher(sinks []sink.Sink, queueSize int, policy DropPolicy, sinkTimeout, drainTimeout time.Duration) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	if policy != DropNewest {
		policy = DropOldest
	}
	if sinkTimeout <= 0 {
		sinkTimeout = 3 * time.Second
	}
	return &Dispatcher{
		queue:        make(chan item, queueSize),
		policy:       policy,
		sinks:        sinks,
		sinkTimeout:  sinkTimeout,
		drainTimeout: drainTimeout,
		stopCh:       make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Emit 投递一条解码结果，由事件路由在读流 goroutine 中调用
func (d *Dispatcher) Emit(ev *core.DecodedEvent) {
	d.enqueue(item{event: ev})
}

// EmitMetadata 投递一条元数据补全结果，可并发调用
func (d *Dispatcher) EmitMetadata(m *core.TokenMetadata) {
	d.enqueue(item{meta: m})
}

// Dropped 返回因队列满而丢弃的条数
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

func (d *Dispatcher) enqueue(it item) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for {
		select {
		case d.queue <- it:
			return
		default:
		}

		if d.policy == DropNewest {
			d.dropped.Add(1)
			logger.Warnf("[Dispatcher] 队列已满，丢弃新事件: %s", it.describe())
			return
		}
		select {
		case old := <-d.queue:
			d.dropped.Add(1)
			logger.Warnf("[Dispatcher] 队列已满，丢弃最早事件: %s", old.describe())
		default:
		}
	}
}

// Start 阻塞运行投递循环，直到 Stop
func (d *Dispatcher) Start() {
	d.lifeMu.Lock()
	if d.stopped || d.started {
		d.lifeMu.Unlock()
		return
	}
	d.started = true
	d.lifeMu.Unlock()
	defer close(d.done)

	for {
		select {
		case it := <-d.queue:
			d.deliver(it)
		case <-d.stopCh:
			d.drain()
			return
		}
	}
}

// drain 停止后尽量把队列中剩余的事件投递完
func (d *Dispatcher) drain() {
	deadline := time.After(d.drainTimeout)
	for {
		select {
		case it := <-d.queue:
			d.deliver(it)
		case <-deadline:
			if n := len(d.queue); n > 0 {
				logger.Warnf("[Dispatcher] 停止超时，放弃 %d 条未投递事件", n)
			}
			return
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(it item) {
	for _, s := range d.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
		var err error
		if it.event != nil {
			err = s.Accept(ctx, it.event)
		} else if ms, ok := s.(sink.MetadataSink); ok {
			err = ms.AcceptMetadata(ctx, it.meta)
		}
		cancel()
		if err != nil {
			logger.Warnf("[Dispatcher] sink=%s 投递失败: %v, %s", s.Name(), err, it.describe())
		}
	}
}

// Stop 停止投递循环并关闭所有 sink
func (d *Dispatcher) Stop() {
	d.lifeMu.Lock()
	if d.stopped {
		d.lifeMu.Unlock()
		return
	}
	d.stopped = true
	started := d.started
	close(d.stopCh)
	d.lifeMu.Unlock()

	if started {
		<-d.done
	}
	for _, s := range d.sinks {
		if err := s.Close(); err != nil {
			logger.Warnf("[Dispatcher] sink=%s 关闭失败: %v", s.Name(), err)
		}
	}
	if n := d.dropped.Load(); n > 0 {
		logger.Infof("[Dispatcher] 运行期间共丢弃 %d 条事件", n)
	}
}

func (it item) describe() string {
	if it.event != nil {
		return "tx=" + it.event.Signature
	}
	return "metadata tx=" + it.meta.Signature
}
