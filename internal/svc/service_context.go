package svc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"pumpwatch-sol/internal/config"
	"pumpwatch-sol/internal/enricher"
	"pumpwatch-sol/internal/logic/dispatcher"
	"pumpwatch-sol/internal/logic/router"
	"pumpwatch-sol/internal/mq"
	"pumpwatch-sol/internal/protocol"
	"pumpwatch-sol/internal/sink"
	"pumpwatch-sol/pkg/logger"
)

const connectTimeout = 10 * time.Second

// ServiceContext 监听服务依赖的全部资源
type ServiceContext struct {
	Config     config.GrpcConfig
	Table      *protocol.Table
	Dispatcher *dispatcher.Dispatcher
	Enricher   *enricher.Enricher // 未启用时为 nil
	Router     *router.Router
}

// NewServiceContext 加载协议表，按配置构建 sink、投递队列、元数据补全与事件路由
func NewServiceContext(c config.GrpcConfig) (*ServiceContext, error) {
	table, err := protocol.Load(c.ProtocolConf.File)
	if err != nil {
		return nil, fmt.Errorf("load protocol table: %w", err)
	}
	logger.Infof("[Svc] 协议表: %s", table)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	sinks, err := BuildSinks(ctx, c.Sinks)
	if err != nil {
		return nil, err
	}

	d := dispatcher.NewDispatcher(
		sinks,
		c.DispatchConf.QueueSize,
		dispatcher.DropPolicy(c.DispatchConf.DropPolicy),
		c.DispatchConf.SinkTimeout(),
		time.Duration(c.DispatchConf.DrainTimeoutSec)*time.Second,
	)

	emitters := []router.Emitter{d}
	var e *enricher.Enricher
	if c.EnricherConf.Enabled {
		e = enricher.NewEnricher(
			c.EnricherConf.Gateways,
			time.Duration(c.EnricherConf.TimeoutSec)*time.Second,
			c.EnricherConf.Workers,
			c.EnricherConf.QueueSize,
			d,
		)
		emitters = append(emitters, e)
	}

	sc := &ServiceContext{
		Config:     c,
		Table:      table,
		Dispatcher: d,
		Enricher:   e,
		Router:     router.NewRouter(table, router.MatchMode(c.ProtocolConf.MatchMode), emitters...),
	}
	logger.Infof("[Svc] 服务上下文初始化完成: sinks=%d, enricher=%v, match_mode=%s", len(sinks), e != nil, c.ProtocolConf.MatchMode)
	return sc, nil
}

// BuildSinks 按配置创建已启用的 sink，任一失败时关闭已创建的部分
func BuildSinks(ctx context.Context, c config.SinksConfig) (sinks []sink.Sink, err error) {
	defer func() {
		if err != nil {
			for _, s := range sinks {
				_ = s.Close()
			}
			sinks = nil
		}
	}()

	if c.Console {
		sinks = append(sinks, sink.NewConsoleSink(os.Stdout))
	}
	if c.File != nil {
		s, err := sink.NewJsonlSink(c.File.Path)
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, s)
	}
	if c.Webhook != nil {
		sinks = append(sinks, sink.NewWebhookSink(c.Webhook.URL, c.Webhook.Headers, time.Duration(c.Webhook.TimeoutSec)*time.Second))
	}
	if c.Kafka != nil {
		producer, err := mq.NewKafkaProducer(c.Kafka.ToKafkaOption())
		if err != nil {
			return sinks, fmt.Errorf("kafka producer 初始化失败: %w", err)
		}
		sinks = append(sinks, sink.NewKafkaSink(producer, c.Kafka.Topic, c.Kafka.Partitions, time.Duration(c.Kafka.SendTimeoutMs)*time.Millisecond))
	}
	if c.Redis != nil {
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{c.Redis.Addr},
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return sinks, fmt.Errorf("redis ping %s: %w", c.Redis.Addr, err)
		}
		sinks = append(sinks, sink.NewRedisStreamSink(client, c.Redis.Stream, c.Redis.MaxLen))
	}
	if c.Postgres != nil {
		s, err := sink.NewPostgresSink(ctx, c.Postgres.DSN, c.Postgres.MaxConns)
		if err != nil {
			return sinks, err
		}
		sinks = append(sinks, s)
	}

	if len(sinks) == 0 {
		return nil, errors.New("no sink enabled")
	}
	return sinks, nil
}
