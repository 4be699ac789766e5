package repository

import (
	"context"

	"RollSpread/internal/domain/models"
	"RollSpread/internal/domain/repository"
	pkgkafka "RollSpread/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher for Kafka.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var (
	_ repository.EventPublisher = (*KafkaEventPublisher)(nil)
	_ repository.EventPublisher = NoopPublisher{}
)

// NewKafkaEventPublisher publishes build events to topic, keyed by instrument.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishBuild(ctx context.Context, ev models.BuildEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(ev.InstrumentName), ev)
}

// PublishMessage sends an arbitrary payload, e.g. a warning report.
func (p *KafkaEventPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NoopPublisher drops every event. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishBuild(context.Context, models.BuildEvent) error { return nil }

func (NoopPublisher) PublishMessage(context.Context, string, interface{}) error { return nil }

func (NoopPublisher) Close() error { return nil }
