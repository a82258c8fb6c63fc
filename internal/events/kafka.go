package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/observability"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const DefaultTopic = "storefront-checkout"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
	logger *zap.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *zap.Logger) *KafkaPublisher {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           5 * time.Second,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(w, logger)
}

func newKafkaPublisher(w messageWriter, logger *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, logger: observability.OrNop(logger)}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id for ordering
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event %s: %w", event.Type, err)
	}
	p.logger.Debug("event published",
		zap.String("event_type", string(event.Type)),
		zap.String("event_id", event.ID),
		zap.String("aggregate_id", event.AggregateID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
