package sse

import (
	"context"
	"sync"

	"ms-tryon/internal/models"
)

const clientBuffer = 10

// Broker fans reservation events out to live-status subscribers. A user
// subscription receives that user's events; an "all" subscription receives
// everything and backs the admin dashboard.
type Broker struct {
	mu    sync.RWMutex
	users map[string][]chan models.ReservationEvent
	all   []chan models.ReservationEvent
}

func NewBroker() *Broker {
	return &Broker{users: make(map[string][]chan models.ReservationEvent)}
}

// Subscribe registers a client for userID. The channel is closed once ctx is done.
func (b *Broker) Subscribe(ctx context.Context, userID string) <-chan models.ReservationEvent {
	ch := make(chan models.ReservationEvent, clientBuffer)

	b.mu.Lock()
	b.users[userID] = append(b.users[userID], ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		b.users[userID] = removeClient(b.users[userID], ch)
		if len(b.users[userID]) == 0 {
			delete(b.users, userID)
		}
	}()
	return ch
}

func (b *Broker) SubscribeAll(ctx context.Context) <-chan models.ReservationEvent {
	ch := make(chan models.ReservationEvent, clientBuffer)

	b.mu.Lock()
	b.all = append(b.all, ch)
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = removeClient(b.all, ch)
	}()
	return ch
}

// Publish never blocks; a client whose buffer is full misses the event.
func (b *Broker) Publish(_ context.Context, evt models.ReservationEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.users[evt.UserID] {
		select {
		case ch <- evt:
		default:
		}
	}
	for _, ch := range b.all {
		select {
		case ch <- evt:
		default:
		}
	}
	return nil
}

func (b *Broker) ClientCount(userID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.users[userID])
}

func removeClient(clients []chan models.ReservationEvent, ch chan models.ReservationEvent) []chan models.ReservationEvent {
	for i, c := range clients {
		if c == ch {
			close(ch)
			return append(clients[:i], clients[i+1:]...)
		}
	}
	return clients
}
