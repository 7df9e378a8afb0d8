package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"ms-tryon/internal/logger"
	"ms-tryon/internal/models"
)

// MessageReader is the part of *kafka.Reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	Reader MessageReader
	Logger *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{Reader: reader, Logger: log}
}

func DecodeReservationEvent(msg kafka.Message) (models.ReservationEvent, error) {
	var evt models.ReservationEvent
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return evt, fmt.Errorf("unmarshal reservation event: %w", err)
	}
	if evt.ReservationID == "" || evt.Type == "" {
		return evt, errors.New("reservation event without id or type")
	}
	return evt, nil
}

// Start delivers decoded events to handler until ctx is cancelled.
// Undecodable messages are logged and skipped.
func (c *Consumer) Start(ctx context.Context, handler func(ctx context.Context, evt models.ReservationEvent)) error {
	c.Logger.Info("KAFKA", "Reservation event consumer started")
	for {
		msg, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			c.Logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			return err
		}

		evt, err := DecodeReservationEvent(msg)
		if err != nil {
			c.Logger.Warn("KAFKA", fmt.Sprintf("Skipping message at offset %d: %v", msg.Offset, err))
			continue
		}
		handler(ctx, evt)
	}
}

func (c *Consumer) Close() error {
	return c.Reader.Close()
}
