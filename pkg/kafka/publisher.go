// Package kafka 提供了向 Kafka 发布领域事件的功能。
package kafka

import (
	"context"
	"encoding/json"
	"time"

	"hoa-advisor-go/internal/config"
	"hoa-advisor-go/pkg/log"

	"github.com/segmentio/kafka-go"
)

// 事件类型。
const (
	EventSubmissionCreated = "submission.created"
	EventReportCreated     = "report.created"
)

// Event 是写入 Kafka 的消息体，Key 为实体 ID。
type Event struct {
	Type       string            `json:"type"`
	ID         string            `json:"id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Publisher 发布领域事件。发布失败不影响主流程。
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

// NewPublisher 根据配置创建事件发布器，未配置 broker 时返回空实现。
func NewPublisher(cfg config.KafkaConfig) Publisher {
	if cfg.Brokers == "" {
		log.Info("未配置 Kafka broker，事件发布已禁用")
		return NopPublisher{}
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Errorf("Kafka 事件发送失败: %d 条, %v", len(messages), err)
			}
		},
	}
	log.Infof("Kafka 事件发布器初始化成功, topic=%s", cfg.Topic)
	return &kafkaPublisher{writer: w}
}

// Publish 序列化事件并异步写入 Kafka。
func (p *kafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ID),
		Value: body,
	})
}

// Close 刷新缓冲并关闭 writer。
func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher 丢弃所有事件。
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }
