package tryon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ms-tryon/internal/logger"
	"ms-tryon/internal/models"
	"ms-tryon/internal/tryon/qr"
	"ms-tryon/internal/utils"
)

// EventSink receives every committed reservation change. Sink errors are
// logged and never fail the mutation.
type EventSink interface {
	Publish(ctx context.Context, evt models.ReservationEvent) error
}

// Store owns the festival catalog and all try-on reservations. Every
// mutation is applied in memory and then written through to Persistence
// while the write lock is held, so snapshots reach storage in order.
type Store struct {
	mu           sync.RWMutex
	festivals    []models.Festival
	reservations []*models.Reservation
	byID         map[string]*models.Reservation
	byQR         map[string]*models.Reservation
	// dirty is set while the latest state has not reached persistence.
	dirty        bool

	persistence Persistence
	codes       *qr.Generator
	sinks       []EventSink
	logger      *logger.Logger
	catalog     []models.Festival
	origin      string
	now         func() time.Time
	newID       func() string
}

type Option func(*Store)

func WithLogger(l *logger.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func WithEventSinks(sinks ...EventSink) Option {
	return func(s *Store) { s.sinks = append(s.sinks, sinks...) }
}

func WithQRGenerator(g *qr.Generator) Option {
	return func(s *Store) { s.codes = g }
}

// WithCatalog replaces the festivals seeded when storage is empty.
func WithCatalog(festivals []models.Festival) Option {
	return func(s *Store) { s.catalog = festivals }
}

// WithOrigin tags published events so an instance can ignore its own.
func WithOrigin(origin string) Option {
	return func(s *Store) { s.origin = origin }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// NewStore builds a store and rehydrates it from p.
func NewStore(ctx context.Context, p Persistence, opts ...Option) (*Store, error) {
	if p == nil {
		return nil, errors.New("tryon: persistence is required")
	}
	s := &Store{
		persistence: p,
		catalog:     DefaultCatalog(),
		codes:       qr.NewGenerator(qr.DefaultPrefix, "localhost", 0),
		logger:      logger.Discard(),
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		newID:       func() string { return utils.GenerateID("rsv") },
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload replaces in-memory state with what persistence currently holds.
// The write lock is held across the load so no committed mutation can be
// overwritten by an older snapshot. When the last write failed, memory is
// authoritative: the snapshot is written again instead of being reloaded.
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dirty {
		s.logger.Warn("STORAGE", "Unsaved changes pending, rewriting snapshot instead of reloading")
		return s.persistLocked(ctx, s.now())
	}

	snap, err := s.persistence.Load(ctx)
	if err != nil {
		return fmt.Errorf("load reservation store: %w", err)
	}
	s.restoreLocked(snap)

	s.logger.LogStorage("LOAD", "snapshot", fmt.Sprintf("%d festivals, %d reservations", len(s.festivals), len(s.reservations)))
	return nil
}

func (s *Store) restoreLocked(snap *models.Snapshot) {
	s.byID = make(map[string]*models.Reservation)
	s.byQR = make(map[string]*models.Reservation)
	s.reservations = nil

	if snap == nil || len(snap.Festivals) == 0 {
		s.festivals = cloneFestivals(s.catalog)
	} else {
		s.festivals = cloneFestivals(snap.Festivals)
	}

	if snap == nil {
		return
	}
	for i := range snap.Reservations {
		r := snap.Reservations[i].Clone()
		s.indexLocked(&r)
	}
}

func (s *Store) indexLocked(r *models.Reservation) {
	s.reservations = append(s.reservations, r)
	s.byID[r.ID] = r
	if r.QRCode != "" {
		s.byQR[r.QRCode] = r
	}
}

// Snapshot returns a deep copy of the full store state.
func (s *Store) Snapshot() models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(s.now())
}

func (s *Store) snapshotLocked(at time.Time) models.Snapshot {
	snap := models.Snapshot{
		Festivals:    cloneFestivals(s.festivals),
		Reservations: make([]models.Reservation, 0, len(s.reservations)),
		SavedAt:      at,
	}
	for _, r := range s.reservations {
		snap.Reservations = append(snap.Reservations, r.Clone())
	}
	return snap
}

// persistLocked writes the current state. Callers hold the write lock.
func (s *Store) persistLocked(ctx context.Context, at time.Time) error {
	snap := s.snapshotLocked(at)
	if err := s.persistence.Save(ctx, &snap); err != nil {
		s.dirty = true
		s.logger.Warn("STORAGE", fmt.Sprintf("Snapshot write failed, changes may not survive a restart: %v", err))
		return fmt.Errorf("%w: %w", ErrNotPersisted, err)
	}
	s.dirty = false
	return nil
}

func (s *Store) emit(ctx context.Context, eventType models.ReservationEventType, r models.Reservation, at time.Time) {
	evt := models.NewReservationEvent(eventType, r, s.origin, at)
	for _, sink := range s.sinks {
		if err := sink.Publish(ctx, evt); err != nil {
			s.logger.Error("EVENTS", fmt.Sprintf("Failed to publish %s for %s: %v", eventType, r.ID, err))
		}
	}
}

// errNoChange lets a mutation finish without bumping the version or writing.
var errNoChange = errors.New("no change")

// mutate runs fn on a working copy of reservation id and commits it when fn
// succeeds.
func (s *Store) mutate(ctx context.Context, id string, eventType models.ReservationEventType, fn func(r *models.Reservation, now time.Time) error) (models.Reservation, error) {
	s.mu.Lock()

	current, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return models.Reservation{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	now := s.now()
	working := current.Clone()
	if err := fn(&working, now); err != nil {
		unchanged := current.Clone()
		s.mu.Unlock()
		if errors.Is(err, errNoChange) {
			return unchanged, nil
		}
		return models.Reservation{}, err
	}

	working.Version++
	working.UpdatedAt = now
	*current = working
	persistErr := s.persistLocked(ctx, now)
	out := current.Clone()
	s.mu.Unlock()

	s.logger.LogReservation(string(eventType), out.ID, fmt.Sprintf("status=%s version=%d", out.Status, out.Version))
	s.emit(ctx, eventType, out, now)
	return out, persistErr
}

func cloneFestivals(in []models.Festival) []models.Festival {
	if in == nil {
		return nil
	}
	out := make([]models.Festival, len(in))
	copy(out, in)
	return out
}
