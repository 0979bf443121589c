package mq

import (
	"testing"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/stretchr/testify/assert"
)

func TestMissingTopics(t *testing.T) {
	existing := map[string]bool{"pump-token-created": true}
	topics := []TopicOption{
		{Topic: "pump-token-created", Partitions: 3},
		{Topic: "pump-token-metadata", Partitions: 0},
		{Topic: "pump-token-metadata", Partitions: 6},
		{Topic: ""},
	}

	assert.Equal(t, []kafka.TopicSpecification{
		{Topic: "pump-token-metadata", NumPartitions: 1, ReplicationFactor: 2},
	}, missingTopics(existing, topics, 2))

	assert.Empty(t, missingTopics(existing, topics[:1], 1))
}

func TestReplicationFor(t *testing.T) {
	assert.Equal(t, 1, replicationFor(0))
	assert.Equal(t, 1, replicationFor(1))
	assert.Equal(t, 2, replicationFor(3))
}
