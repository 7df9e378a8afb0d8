package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-tryon/internal/models"
)

func event(userID string, status models.Status) models.ReservationEvent {
	return models.ReservationEvent{
		Type:          models.EventReservationUpdated,
		ReservationID: "rsv_1",
		UserID:        userID,
		Status:        status,
	}
}

func receive(t *testing.T, ch <-chan models.ReservationEvent) models.ReservationEvent {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return models.ReservationEvent{}
	}
}

func TestBroker_RoutesByUser(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := b.Subscribe(ctx, "alice")
	bob := b.Subscribe(ctx, "bob")
	all := b.SubscribeAll(ctx)

	require.NoError(t, b.Publish(ctx, event("alice", models.StatusConfirmed)))

	assert.Equal(t, models.StatusConfirmed, receive(t, alice).Status)
	assert.Equal(t, "alice", receive(t, all).UserID)
	select {
	case evt := <-bob:
		t.Fatalf("bob received %v", evt)
	default:
	}
}

func TestBroker_FullBufferDoesNotBlock(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := b.Subscribe(ctx, "alice")

	done := make(chan struct{})
	go func() {
		for i := 0; i < clientBuffer*3; i++ {
			_ = b.Publish(ctx, event("alice", models.StatusPending))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full client")
	}
	assert.Len(t, ch, clientBuffer)
}

func TestBroker_UnsubscribeOnCancel(t *testing.T) {
	b := NewBroker()
	ctx, cancel := context.WithCancel(context.Background())
	ch := b.Subscribe(ctx, "alice")
	assert.Equal(t, 1, b.ClientCount("alice"))

	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
	assert.Equal(t, 0, b.ClientCount("alice"))
	assert.NoError(t, b.Publish(context.Background(), event("alice", models.StatusCancelled)))
}
