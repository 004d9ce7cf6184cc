package repository

import (
	"context"

	"SlinkyTA/internal/domain/models"
	domrepo "SlinkyTA/internal/domain/repository"
)

// messageProducer is the subset of pkg/kafka.Producer the publisher needs.
type messageProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaSignalPublisher emits persisted signals as JSON, keyed by asset so
// one asset's signals stay ordered within a partition.
type KafkaSignalPublisher struct {
	producer messageProducer
	topic    string
}

var _ domrepo.SignalPublisher = (*KafkaSignalPublisher)(nil)

// NewKafkaSignalPublisher creates a publisher.
func NewKafkaSignalPublisher(producer messageProducer, topic string) *KafkaSignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, sig *models.Signal) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Asset), sig)
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops every signal. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *models.Signal) error { return nil }
func (NopPublisher) Close() error                                  { return nil }
