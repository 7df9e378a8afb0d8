package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"ms-tryon/internal/logger"
	"ms-tryon/internal/models"
)

// MessageWriter is the part of *kafka.Writer the producer uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
	Logger *logger.Logger
}

// NewProducer writes to any topic; the topic is chosen per message.
func NewProducer(brokers []string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer, Logger: log}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	err := p.Writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
	if err != nil {
		return fmt.Errorf("kafka write to %s: %w", topic, err)
	}
	p.Logger.LogKafka("PUBLISH", topic, key)
	return nil
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}

// ReservationPublisher streams reservation lifecycle events, keyed by
// reservation id so one reservation's events stay ordered in a partition.
type ReservationPublisher struct {
	Producer *Producer
	Topic    string
}

func NewReservationPublisher(producer *Producer, topic string) *ReservationPublisher {
	return &ReservationPublisher{Producer: producer, Topic: topic}
}

func (p *ReservationPublisher) Publish(ctx context.Context, evt models.ReservationEvent) error {
	value, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal reservation event: %w", err)
	}
	return p.Producer.Publish(ctx, p.Topic, evt.ReservationID, value)
}
