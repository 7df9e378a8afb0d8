package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"ms-tryon/internal/logger"
	"ms-tryon/internal/models"
)

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockWriter) Close() error {
	return m.Called().Error(0)
}

type sliceReader struct {
	msgs []kafka.Message
}

func (r *sliceReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	msg := r.msgs[0]
	r.msgs = r.msgs[1:]
	return msg, nil
}

func (r *sliceReader) Close() error { return nil }

func sampleEvent() models.ReservationEvent {
	return models.ReservationEvent{
		Type:          models.EventReservationConfirmed,
		ReservationID: "rsv_1",
		QRCode:        "KH-ABCD2345",
		UserID:        "user-1",
		FestivalID:    "bangkok-kiz-2024",
		Status:        models.StatusConfirmed,
		Version:       2,
		Origin:        "node-a",
		OccurredAt:    time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestReservationPublisher_KeysByReservationID(t *testing.T) {
	writer := new(MockWriter)
	writer.On("WriteMessages", mock.Anything, mock.MatchedBy(func(msgs []kafka.Message) bool {
		if len(msgs) != 1 {
			return false
		}
		var evt models.ReservationEvent
		if err := json.Unmarshal(msgs[0].Value, &evt); err != nil {
			return false
		}
		return msgs[0].Topic == "tryon.reservations.events" &&
			string(msgs[0].Key) == "rsv_1" &&
			evt.Status == models.StatusConfirmed
	})).Return(nil)

	pub := NewReservationPublisher(&Producer{Writer: writer, Logger: logger.Discard()}, "tryon.reservations.events")
	err := pub.Publish(context.Background(), sampleEvent())

	require.NoError(t, err)
	writer.AssertExpectations(t)
}

func TestProducer_PublishWrapsWriteError(t *testing.T) {
	writer := new(MockWriter)
	writer.On("WriteMessages", mock.Anything, mock.Anything).Return(errors.New("broker unavailable"))

	p := &Producer{Writer: writer, Logger: logger.Discard()}
	err := p.Publish(context.Background(), "topic-a", "key", []byte("{}"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "topic-a")
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestDecodeReservationEvent(t *testing.T) {
	value, err := json.Marshal(sampleEvent())
	require.NoError(t, err)

	evt, err := DecodeReservationEvent(kafka.Message{Value: value})
	require.NoError(t, err)
	assert.Equal(t, sampleEvent(), evt)

	_, err = DecodeReservationEvent(kafka.Message{Value: []byte("not json")})
	assert.Error(t, err)

	_, err = DecodeReservationEvent(kafka.Message{Value: []byte(`{"type":"reservation.created"}`)})
	assert.Error(t, err)
}

func TestConsumer_SkipsBadMessagesAndStopsOnCancel(t *testing.T) {
	good, err := json.Marshal(sampleEvent())
	require.NoError(t, err)
	reader := &sliceReader{msgs: []kafka.Message{
		{Value: []byte("garbage"), Offset: 1},
		{Value: good, Offset: 2},
	}}
	c := &Consumer{Reader: reader, Logger: logger.Discard()}

	ctx, cancel := context.WithCancel(context.Background())
	var got []models.ReservationEvent
	done := make(chan error, 1)
	go func() {
		done <- c.Start(ctx, func(_ context.Context, evt models.ReservationEvent) {
			got = append(got, evt)
			cancel()
		})
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after cancel")
	}
	require.Len(t, got, 1)
	assert.Equal(t, "rsv_1", got[0].ReservationID)
}

func TestNewProducer_FlushesPromptly(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, logger.Discard())

	w, ok := p.Writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
