package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"ecoport/internal/logger"
	"ecoport/internal/models"
)

var (
	ErrPublisherClosed = errors.New("publisher is closed")
	ErrSerializeFailed = errors.New("failed to serialize alert")
)

// messageWriter часть kafka.Writer, используемая публикатором
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// AlertEvent сообщение об одном предупреждении
type AlertEvent struct {
	CycleID     string       `json:"cycle_id"`
	EvaluatedAt time.Time    `json:"evaluated_at"`
	Alert       models.Alert `json:"alert"`
}

// KafkaPublisher публикует предупреждения каждого цикла в топик Kafka
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	closed atomic.Bool

	messagesSent   atomic.Uint64
	messagesFailed atomic.Uint64
}

// NewKafkaPublisher создает публикатора
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // партиция по категории
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
	}
	return newKafkaPublisher(writer, topic), nil
}

func newKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

// Name имя приемника для метрик и логов
func (p *KafkaPublisher) Name() string { return "kafka" }

// PublishCycle отправляет по одному сообщению на каждое предупреждение цикла одним батчем
func (p *KafkaPublisher) PublishCycle(ctx context.Context, cycle models.CycleResult) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}

	messages, err := buildMessages(cycle)
	if err != nil {
		return err
	}
	if len(messages) == 0 {
		return nil
	}

	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.messagesFailed.Add(uint64(len(messages)))
		return fmt.Errorf("failed to publish %d alerts to %s: %w", len(messages), p.topic, err)
	}

	p.messagesSent.Add(uint64(len(messages)))
	log := logger.WithCycle("kafka_publisher", cycle.CycleID)
	log.Debug().
		Int("batch_size", len(messages)).
		Str("topic", p.topic).
		Msg("alerts published")
	return nil
}

func buildMessages(cycle models.CycleResult) ([]kafka.Message, error) {
	messages := make([]kafka.Message, 0, len(cycle.Alerts))
	for _, a := range cycle.Alerts {
		data, err := json.Marshal(AlertEvent{
			CycleID:     cycle.CycleID,
			EvaluatedAt: cycle.EvaluatedAt,
			Alert:       a,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrSerializeFailed, a.Rule, err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(a.Category.String()),
			Value: data,
			Headers: []kafka.Header{
				{Key: "cycle_id", Value: []byte(cycle.CycleID)},
				{Key: "type", Value: []byte(a.Type.String())},
				{Key: "priority", Value: []byte(a.Priority.String())},
			},
			Time: cycle.EvaluatedAt,
		})
	}
	return messages, nil
}

// Close закрывает writer
func (p *KafkaPublisher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.writer.Close()
}

// Stats статистика публикатора
func (p *KafkaPublisher) Stats() PublisherStats {
	return PublisherStats{
		MessagesSent:   p.messagesSent.Load(),
		MessagesFailed: p.messagesFailed.Load(),
	}
}

// PublisherStats счетчики публикатора
type PublisherStats struct {
	MessagesSent   uint64 `json:"messages_sent"`
	MessagesFailed uint64 `json:"messages_failed"`
}
