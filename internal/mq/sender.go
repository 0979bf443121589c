package mq

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

// KafkaJob 表示一条需要发送的 Kafka 消息
type KafkaJob struct {
	Topic     string
	Partition int32
	Key       []byte
	Value     []byte
}

// Producer 是 *kafka.Producer 中发送所需的部分
type Producer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
}

var ErrDeliveryTimeout = errors.New("kafka delivery timeout")

// Publish 发送一条消息并等待 broker 回执，超时或 ctx 取消时放弃等待
func Publish(ctx context.Context, producer Producer, job *KafkaJob, timeout time.Duration) error {
	deliveryChan := make(chan kafka.Event, 1)
	err := producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &job.Topic, Partition: job.Partition},
		Key:            job.Key,
		Value:          job.Value,
	}, deliveryChan)
	if err != nil {
		return fmt.Errorf("produce: %w", err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e := <-deliveryChan:
		return deliveryResult(e)
	case <-timer.C:
		return fmt.Errorf("%w (>%v)", ErrDeliveryTimeout, timeout)
	case <-ctx.Done():
		return fmt.Errorf("ctx cancelled: %w", ctx.Err())
	}
}

func deliveryResult(e kafka.Event) error {
	msg, ok := e.(*kafka.Message)
	if !ok {
		return fmt.Errorf("unexpected delivery event: %T", e)
	}
	return msg.TopicPartition.Error
}
