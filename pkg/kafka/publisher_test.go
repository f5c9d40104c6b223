package kafka_test

import (
	"context"
	"testing"

	"hoa-advisor-go/internal/config"
	"hoa-advisor-go/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPublisher_DisabledWithoutBrokers(t *testing.T) {
	p := kafka.NewPublisher(config.KafkaConfig{Topic: "hoa-events"})
	_, ok := p.(kafka.NopPublisher)
	require.True(t, ok)

	assert.NoError(t, p.Publish(context.Background(), kafka.Event{Type: kafka.EventReportCreated, ID: "r1"}))
	assert.NoError(t, p.Close())
}

func TestNewPublisher_WithBrokers(t *testing.T) {
	p := kafka.NewPublisher(config.KafkaConfig{Brokers: "127.0.0.1:9092", Topic: "hoa-events"})
	_, ok := p.(kafka.NopPublisher)
	assert.False(t, ok)
	// 未写入消息时关闭不需要连接 broker
	assert.NoError(t, p.Close())
}
