package sink

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/mr-tron/base58"
	"google.golang.org/protobuf/proto"

	"pumpwatch-sol/internal/logic/core"
	"pumpwatch-sol/internal/mq"
	"pumpwatch-sol/internal/utils"
)

// KafkaSink 以 mint 为 key 写入 Kafka，同一 mint 固定落在同一分区
type KafkaSink struct {
	producer    *kafka.Producer
	topic       string
	partitions  uint32
	sendTimeout time.Duration
}

func NewKafkaSink(producer *kafka.Producer, topic string, partitions int, sendTimeout time.Duration) *KafkaSink {
	if partitions <= 0 {
		partitions = 1
	}
	if sendTimeout <= 0 {
		sendTimeout = 3 * time.Second
	}
	return &KafkaSink{
		producer:    producer,
		topic:       topic,
		partitions:  uint32(partitions),
		sendTimeout: sendTimeout,
	}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Accept(ctx context.Context, ev *core.DecodedEvent) error {
	msg, err := utils.EventStruct(ev)
	if err != nil {
		return fmt.Errorf("build event struct: %w", err)
	}
	job, err := buildKafkaJob(s.topic, s.partitions, core.EventTypeTokenCreated, ev.Mint(), msg)
	if err != nil {
		return err
	}
	return s.send(ctx, job)
}

func (s *KafkaSink) AcceptMetadata(ctx context.Context, m *core.TokenMetadata) error {
	msg, err := utils.MetadataStruct(m)
	if err != nil {
		return fmt.Errorf("build metadata struct: %w", err)
	}
	job, err := buildKafkaJob(s.topic, s.partitions, core.EventTypeTokenMetadata, m.Mint, msg)
	if err != nil {
		return err
	}
	return s.send(ctx, job)
}

func (s *KafkaSink) send(ctx context.Context, job *mq.KafkaJob) error {
	if err := mq.Publish(ctx, s.producer, job, s.sendTimeout); err != nil {
		return fmt.Errorf("kafka send to %s[%d]: %w", job.Topic, job.Partition, err)
	}
	return nil
}

// buildKafkaJob 按 mint 字节选择分区；mint 无法解码时回退到 0 号分区
func buildKafkaJob(topic string, partitions uint32, eventType uint32, mint string, msg proto.Message) (*mq.KafkaJob, error) {
	value, err := utils.EncodeEvent(eventType, msg)
	if err != nil {
		return nil, err
	}
	var partition uint32
	if raw, err := base58.Decode(mint); err == nil {
		partition = utils.PartitionHashBytes(raw, partitions)
	}
	return &mq.KafkaJob{
		Topic:     topic,
		Partition: int32(partition),
		Key:       []byte(mint),
		Value:     value,
	}, nil
}

func (s *KafkaSink) Close() error {
	// 最多等待 5 秒把未发送的消息刷出
	if remaining := s.producer.Flush(5000); remaining > 0 {
		s.producer.Close()
		return fmt.Errorf("kafka flush: %d messages not delivered", remaining)
	}
	s.producer.Close()
	return nil
}
