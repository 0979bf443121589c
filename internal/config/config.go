package config

import (
	"time"

	"pumpwatch-sol/internal/mq"
	"pumpwatch-sol/pkg/logger"
)

type LogConfig struct {
	Format   string `json:"format,default=console,options=console|json"` // 日志格式，支持 "console" 或 "json"
	LogDir   string `json:"log_dir,optional"`                            // 日志目录（可为相对路径或绝对路径），为空只输出到 stderr
	Level    string `json:"level,default=info"`                          // 日志级别：debug / info / warn / error
	Compress bool   `json:"compress,optional"`                           // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// SubscribeConfig 订阅过滤条件
type SubscribeConfig struct {
	Commitment     string   `json:"commitment,default=PROCESSED,options=PROCESSED|CONFIRMED|FINALIZED"`
	AccountInclude []string `json:"account_include,optional"` // 为空时使用协议表中的程序地址
	Failed         bool     `json:"failed,optional"`          // 是否接收执行失败的交易
}

// ProtocolConfig 协议表配置
type ProtocolConfig struct {
	File      string `json:"file,optional"`                              // 协议 YAML 文件，为空使用内置 pump.fun create
	MatchMode string `json:"match_mode,default=first,options=first|all"` // 一笔交易多条命中指令时的处理方式
}

// DispatchConfig 解码结果到 sink 的投递队列
type DispatchConfig struct {
	QueueSize       int    `json:"queue_size,default=1024"`
	DropPolicy      string `json:"drop_policy,default=drop_oldest,options=drop_oldest|drop_newest"`
	SinkTimeoutMs   int    `json:"sink_timeout_ms,default=3000"` // 单个 sink 单次投递超时
	DrainTimeoutSec int    `json:"drain_timeout_sec,default=5"`  // 停止时等待队列排空的最长时间
}

func (c *DispatchConfig) SinkTimeout() time.Duration {
	return time.Duration(c.SinkTimeoutMs) * time.Millisecond
}

// EnricherConfig 链下元数据补全
type EnricherConfig struct {
	Enabled    bool     `json:"enabled,optional"`
	Gateways   []string `json:"gateways,optional"`
	TimeoutSec int      `json:"timeout_sec,default=5"` // 单个网关单次请求超时
	Workers    int      `json:"workers,default=4"`
	QueueSize  int      `json:"queue_size,default=256"`
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置
type KafkaProducerConfig struct {
	Brokers       string `json:"brokers"`                      // Kafka broker 地址，多个用英文逗号分隔
	BatchSize     int    `json:"batch_size,default=65536"`     // 批处理大小（单位字节）
	LingerMs      int    `json:"linger_ms,default=5"`          // 批处理最大延迟（毫秒）
	Topic         string `json:"topic,default=pump-token-created"`
	Partitions    int    `json:"partitions,default=3"`         // topic 的分区数
	SendTimeoutMs int    `json:"send_timeout_ms,default=3000"` // 单条事件发送到 Kafka 并等待 ack 的超时时间
}

func (c *KafkaProducerConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:   c.Brokers,
		BatchSize: c.BatchSize,
		LingerMs:  c.LingerMs,
		Topics: []mq.TopicOption{
			{Topic: c.Topic, Partitions: c.Partitions},
		},
	}
}

type RedisSinkConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,optional"`
	DB       int    `json:"db,optional"`
	Stream   string `json:"stream,default=pump:token_created"`
	MaxLen   int64  `json:"max_len,default=100000"` // XADD MAXLEN ~
}

type PostgresSinkConfig struct {
	DSN      string `json:"dsn"`
	MaxConns int32  `json:"max_conns,default=4"`
}

type WebhookSinkConfig struct {
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers,optional"`
	TimeoutSec int               `json:"timeout_sec,default=5"`
}

type FileSinkConfig struct {
	Path string `json:"path,default=data/token_created.jsonl"`
}

// SinksConfig 各 sink 独立开关，指针为空表示未启用
type SinksConfig struct {
	Console  bool                 `json:"console,default=true"`
	File     *FileSinkConfig      `json:"file,optional"`
	Webhook  *WebhookSinkConfig   `json:"webhook,optional"`
	Kafka    *KafkaProducerConfig `json:"kafka,optional"`
	Redis    *RedisSinkConfig     `json:"redis,optional"`
	Postgres *PostgresSinkConfig  `json:"postgres,optional"`
}

// GrpcConfig 是主配置结构体，用于驱动监听服务
type GrpcConfig struct {
	LogConf       LogConfig       `json:"logger"`             // 日志配置
	SubscribeConf SubscribeConfig `json:"subscribe,optional"` // 订阅配置
	ProtocolConf  ProtocolConfig  `json:"protocol,optional"`  // 协议表配置
	DispatchConf  DispatchConfig  `json:"dispatch,optional"`  // 投递队列配置
	EnricherConf  EnricherConfig  `json:"enricher,optional"`  // 元数据补全配置
	Sinks         SinksConfig     `json:"sinks,optional"`     // 输出配置

	Grpc GrpcClientConfig `json:"grpc"` // gRPC 客户端连接相关配置
}

// GrpcClientConfig gRPC 订阅连接配置
type GrpcClientConfig struct {
	Endpoint string `json:"endpoint"`          // gRPC 服务端地址
	XToken   string `json:"x_token,optional"`  // x-token 认证
	Insecure bool   `json:"insecure,optional"` // 不使用 TLS（本地调试）

	// 应用级逻辑心跳（ping）配置
	StreamPingIntervalSec int `json:"stream_ping_interval_sec,default=10"` // 应用层 ping 心跳间隔（秒）

	// gRPC Keepalive 底层连接检测配置
	KeepalivePingIntervalSec int `json:"keepalive_ping_interval_sec,default=10"` // 底层 keepalive 间隔（秒）
	KeepalivePingTimeoutSec  int `json:"keepalive_ping_timeout_sec,default=5"`   // 底层 keepalive 超时（秒）

	// gRPC 窗口大小调优（用于大数据流推送）
	InitialWindowSize     int `json:"initial_window_size,default=1073741824"`      // 单流窗口大小（字节）
	InitialConnWindowSize int `json:"initial_conn_window_size,default=1073741824"` // 整体连接窗口大小（字节）

	// 消息体大小限制
	MaxCallSendMsgSize int `json:"max_call_send_msg_size,default=67108864"` // 单条消息最大发送字节数
	MaxCallRecvMsgSize int `json:"max_call_recv_msg_size,default=67108864"` // 单条消息最大接收字节数

	// 超时与重连策略
	ReconnectIntervalSec int `json:"reconnect_interval_sec,default=2"` // 重连最小间隔（秒）
	ConnectTimeoutSec    int `json:"connect_timeout_sec,default=10"`   // 连接建立超时（秒）
	SendTimeoutSec       int `json:"send_timeout_sec,default=5"`       // 发送超时（秒）
	IdleTimeoutSec       int `json:"idle_timeout_sec,default=60"`      // 长时间无任何推送则重连（秒）
}
