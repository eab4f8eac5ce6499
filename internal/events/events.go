// ===========================================
// Package events - Domain Event Stream
// ===========================================
// Click, earning and payout events are published to Kafka when brokers
// are configured. Publishing never fails a request: the writer is
// asynchronous and delivery errors are only logged.
// ===========================================

package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Event types.
const (
	TypeClickRecorded  = "click.recorded"
	TypeClickCompleted = "click.completed"
	TypeEarningMinted  = "earning.minted"
	TypePayoutUpdated  = "payout.updated"
)

// Event is the envelope written to the topic. Key partitions the stream,
// normally by link owner.
type Event struct {
	Type       string         `json:"type"`
	Key        string         `json:"key"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

// KafkaPublisher writes events to one Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger logrus.FieldLogger
}

// NewKafkaPublisher creates an asynchronous publisher for topic.
func NewKafkaPublisher(brokers []string, topic string, logger logrus.FieldLogger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.WithError(err).WithField("messages", len(messages)).Warn("Failed to write events to Kafka")
			}
		},
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish encodes and enqueues the event.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		p.logger.WithError(err).WithField("type", e.Type).Error("Failed to encode event")
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		p.logger.WithError(err).WithField("type", e.Type).Warn("Failed to enqueue event")
	}
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
