package grpc

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AlekSi/pointer"
	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"

	"pumpwatch-sol/internal/config"
	"pumpwatch-sol/internal/svc"
	"pumpwatch-sol/pkg/logger"
)

const filterName = "pumpwatch"

var errIdleTimeout = errors.New("no update received within idle timeout")

// UpdateHandler 按推送顺序同步处理每条 update，不得阻塞
type UpdateHandler func(update *pb.SubscribeUpdate)

type GrpcStreamManager struct {
	mu                 sync.Mutex
	conn               *grpc.ClientConn        // gRPC 连接对象，测试中可为空
	client             pb.GeyserClient         // gRPC 客户端
	request            *pb.SubscribeRequest    // 每次连接后发送的订阅请求
	handler            UpdateHandler           // update 处理函数
	stopped            bool                    // 标记是否已经停止
	stopCh             chan struct{}           // Stop 时关闭，用于打断重连等待
	connCancel         context.CancelCauseFunc // 当前连接的 cancel 函数
	reconnectAttempts  int                     // 连续重连次数，连接成功后清零
	reconnectInterval  time.Duration           // 重连基础间隔
	xToken             string                  // 认证用的 x-token
	streamPingInterval time.Duration           // 应用层 ping 间隔，<=0 不发送
	sendTimeout        time.Duration           // Send 超时
	idleTimeout        time.Duration           // 长时间无推送触发重连，<=0 不检测
	lastRecv           atomic.Int64            // 最近一次收到推送的时间（UnixNano）
}

func NewGrpcStreamManager(sc *svc.ServiceContext) (*GrpcStreamManager, error) {
	grpcConf := sc.Config.Grpc

	req, err := buildSubscribeRequest(sc.Config.SubscribeConf, sc.Table.ProgramIDs())
	if err != nil {
		return nil, err
	}

	creds := credentials.NewTLS(&tls.Config{InsecureSkipVerify: true})
	if grpcConf.Insecure {
		creds = insecure.NewCredentials()
	}

	dialCtx, cancel := context.WithTimeout(context.Background(), time.Duration(grpcConf.ConnectTimeoutSec)*time.Second)
	defer cancel()

	conn, err := grpc.DialContext(
		dialCtx,
		grpcConf.Endpoint,
		grpc.WithTransportCredentials(creds),
		grpc.WithInitialWindowSize(int32(grpcConf.InitialWindowSize)),
		grpc.WithInitialConnWindowSize(int32(grpcConf.InitialConnWindowSize)),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(grpcConf.MaxCallSendMsgSize),
			grpc.MaxCallRecvMsgSize(grpcConf.MaxCallRecvMsgSize),
		),
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                time.Duration(grpcConf.KeepalivePingIntervalSec) * time.Second,
			Timeout:             time.Duration(grpcConf.KeepalivePingTimeoutSec) * time.Second,
			PermitWithoutStream: true,
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect %s: %w", grpcConf.Endpoint, err)
	}

	m := newStreamManager(pb.NewGeyserClient(conn), req, sc.Router.Dispatch, grpcConf)
	m.conn = conn
	return m, nil
}

func newStreamManager(client pb.GeyserClient, req *pb.SubscribeRequest, handler UpdateHandler, grpcConf config.GrpcClientConfig) *GrpcStreamManager {
	return &GrpcStreamManager{
		client:             client,
		request:            req,
		handler:            handler,
		stopCh:             make(chan struct{}),
		reconnectInterval:  time.Duration(grpcConf.ReconnectIntervalSec) * time.Second,
		xToken:             grpcConf.XToken,
		streamPingInterval: time.Duration(grpcConf.StreamPingIntervalSec) * time.Second,
		sendTimeout:        time.Duration(grpcConf.SendTimeoutSec) * time.Second,
		idleTimeout:        time.Duration(grpcConf.IdleTimeoutSec) * time.Second,
	}
}

// buildSubscribeRequest 只订阅包含目标程序的非投票交易
func buildSubscribeRequest(sub config.SubscribeConfig, programIDs []string) (*pb.SubscribeRequest, error) {
	accountInclude := sub.AccountInclude
	if len(accountInclude) == 0 {
		accountInclude = programIDs
	}
	if len(accountInclude) == 0 {
		return nil, errors.New("subscribe account_include is empty and protocol table has no program id")
	}

	level, ok := pb.CommitmentLevel_value[strings.ToUpper(sub.Commitment)]
	if !ok {
		return nil, fmt.Errorf("unknown commitment level: %q", sub.Commitment)
	}
	commitment := pb.CommitmentLevel(level)

	return &pb.SubscribeRequest{
		Transactions: map[string]*pb.SubscribeRequestFilterTransactions{
			filterName: {
				Vote:           pointer.ToBool(false),
				Failed:         pointer.ToBool(sub.Failed),
				AccountInclude: accountInclude,
			},
		},
		Commitment: &commitment,
	}, nil
}

// Start 阻塞运行订阅循环，断线后自动重连，直到 Stop
func (m *GrpcStreamManager) Start() {
	for {
		if m.isStopped() {
			return
		}
		if m.reconnectAttempts > 0 && !m.waitReconnect() {
			return
		}
		logger.Infof("[GrpcStream] 开始订阅, attempt=%d", m.reconnectAttempts+1)
		m.reconnectAttempts++

		err := m.runOnce()
		if m.isStopped() {
			return
		}
		logger.Warnf("[GrpcStream] 订阅中断: %v, 准备重连", err)
	}
}

func (m *GrpcStreamManager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	m.stopped = true
	close(m.stopCh)
	if m.connCancel != nil {
		m.connCancel(context.Canceled)
		m.connCancel = nil
	}
	if m.conn != nil {
		_ = m.conn.Close()
	}
}

func (m *GrpcStreamManager) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// waitReconnect 连续失败超过 3 次后间隔加倍；返回 false 表示等待期间已 Stop
func (m *GrpcStreamManager) waitReconnect() bool {
	interval := m.reconnectInterval
	if m.reconnectAttempts > 3 {
		interval *= 2
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-m.stopCh:
		return false
	}
}

// runOnce 建立一次订阅并持续接收，返回中断原因
func (m *GrpcStreamManager) runOnce() error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return errors.New("manager is stopped")
	}
	ctx, cancel := context.WithCancelCause(context.Background())
	m.connCancel = cancel
	m.mu.Unlock()
	defer cancel(nil)

	metaCtx := ctx
	if m.xToken != "" {
		metaCtx = metadata.NewOutgoingContext(ctx, metadata.New(map[string]string{"x-token": m.xToken}))
	}
	stream, err := m.client.Subscribe(metaCtx)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	if err := sendWithTimeout(ctx, stream.Send, m.request, m.sendTimeout); err != nil {
		return fmt.Errorf("send subscribe request: %w", err)
	}

	m.reconnectAttempts = 0
	m.lastRecv.Store(time.Now().UnixNano())
	logger.Infof("[GrpcStream] 订阅成功")

	// 同一 stream 只允许一个 goroutine 发送，订阅请求发送完成后才启动 ping
	if m.streamPingInterval > 0 {
		go m.pingLoop(ctx, stream)
	}
	if m.idleTimeout > 0 {
		go m.idleWatch(ctx, cancel)
	}
	return m.recvLoop(ctx, stream)
}

func (m *GrpcStreamManager) recvLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) error {
	for {
		update, err := stream.Recv()
		if err != nil {
			if cause := context.Cause(ctx); cause != nil {
				return cause
			}
			if errors.Is(err, io.EOF) {
				return errors.New("stream closed by server (EOF)")
			}
			return err
		}
		m.lastRecv.Store(time.Now().UnixNano())
		m.handler(update)
	}
}

// idleWatch 超过 idleTimeout 没有任何推送（包括 pong）时取消当前连接
func (m *GrpcStreamManager) idleWatch(ctx context.Context, cancel context.CancelCauseFunc) {
	tick := m.idleTimeout / 4
	if tick <= 0 {
		tick = m.idleTimeout
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			last := time.Unix(0, m.lastRecv.Load())
			if time.Since(last) > m.idleTimeout {
				logger.Warnf("[GrpcStream] %v 未收到推送，触发重连", m.idleTimeout)
				cancel(errIdleTimeout)
				return
			}
		}
	}
}

// 心跳检测
func (m *GrpcStreamManager) pingLoop(ctx context.Context, stream pb.Geyser_SubscribeClient) {
	ticker := time.NewTicker(m.streamPingInterval)
	defer ticker.Stop()
	var id int32
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			id++
			pingReq := &pb.SubscribeRequest{
				Ping: &pb.SubscribeRequestPing{Id: id},
			}
			if err := sendWithTimeout(ctx, stream.Send, pingReq, m.sendTimeout); err != nil {
				// 这里只记录日志，由 idleWatch 决定是否重连
				logger.Warnf("[GrpcStream] ping failed: %v", err)
			}
		}
	}
}

// 带超时的 Send
func sendWithTimeout[T any](ctx context.Context, sendFunc func(T) error, req T, timeout time.Duration) error {
	if timeout <= 0 {
		return sendFunc(req)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- sendFunc(req)
	}()

	select {
	case <-timeoutCtx.Done():
		return timeoutCtx.Err()
	case err := <-done:
		return err
	}
}
