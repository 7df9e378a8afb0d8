package tryon

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"ms-tryon/internal/models"
)

// NewReservation is what the selection wizard collects.
type NewReservation struct {
	UserID            string   `json:"user_id"`
	UserEmail         string   `json:"user_email"`
	UserName          string   `json:"user_name,omitempty"`
	Pieces            []string `json:"pieces"`
	PrimaryFestival   string   `json:"primary_festival"`
	AlternateFestival string   `json:"alternate_festival,omitempty"`
}

// ReservationUpdate edits metadata only. Status and payment change through
// the transition operations.
type ReservationUpdate struct {
	UserName          *string  `json:"user_name,omitempty"`
	UserEmail         *string  `json:"user_email,omitempty"`
	AlternateFestival *string  `json:"alternate_festival,omitempty"`
	Pieces            []string `json:"pieces,omitempty"`
	ExpectedVersion   *int     `json:"expected_version,omitempty"`
}

func (s *Store) CreateReservation(ctx context.Context, in NewReservation) (models.Reservation, error) {
	userID := strings.TrimSpace(in.UserID)
	email := strings.TrimSpace(in.UserEmail)
	if userID == "" || email == "" {
		return models.Reservation{}, fmt.Errorf("%w: user id and email are required", ErrInvalidReservation)
	}

	pieces := normalizePieces(in.Pieces)
	if len(pieces) == 0 {
		return models.Reservation{}, fmt.Errorf("%w: at least one piece is required", ErrInvalidReservation)
	}

	s.mu.Lock()

	primary := strings.TrimSpace(in.PrimaryFestival)
	alternate := strings.TrimSpace(in.AlternateFestival)
	if err := s.checkFestivalsLocked(primary, alternate); err != nil {
		s.mu.Unlock()
		return models.Reservation{}, err
	}

	code, err := s.codes.NewCode(func(c string) bool {
		_, taken := s.byQR[c]
		return taken
	})
	if err != nil {
		s.mu.Unlock()
		return models.Reservation{}, err
	}

	id := s.newID()
	for _, taken := s.byID[id]; taken; _, taken = s.byID[id] {
		id = s.newID()
	}

	now := s.now()
	r := &models.Reservation{
		ID:                id,
		QRCode:            code,
		UserID:            userID,
		UserEmail:         email,
		UserName:          strings.TrimSpace(in.UserName),
		Pieces:            pieces,
		PrimaryFestival:   primary,
		AlternateFestival: alternate,
		Status:            models.StatusPending,
		PaymentStatus:     models.PaymentPending,
		CreatedAt:         now,
		UpdatedAt:         now,
		Version:           1,
	}
	s.indexLocked(r)
	persistErr := s.persistLocked(ctx, now)
	out := r.Clone()
	s.mu.Unlock()

	s.logger.LogReservation("CREATE", out.ID, fmt.Sprintf("qr=%s festival=%s pieces=%d", out.QRCode, out.PrimaryFestival, len(out.Pieces)))
	s.emit(ctx, models.EventReservationCreated, out, now)
	return out, persistErr
}

func (s *Store) checkFestivalsLocked(primary, alternate string) error {
	if primary == "" {
		return fmt.Errorf("%w: primary festival is required", ErrInvalidReservation)
	}
	f, ok := s.festivalLocked(primary)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFestival, primary)
	}
	if !f.Available {
		return fmt.Errorf("%w: %s", ErrFestivalClosed, primary)
	}
	return s.checkAlternateLocked(primary, alternate)
}

func (s *Store) checkAlternateLocked(primary, alternate string) error {
	if alternate == "" {
		return nil
	}
	if alternate == primary {
		return fmt.Errorf("%w: alternate festival must differ from primary", ErrInvalidReservation)
	}
	if _, ok := s.festivalLocked(alternate); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownFestival, alternate)
	}
	return nil
}

// normalizePieces trims, drops blanks and duplicates, and keeps the first
// models.MaxPieces ids.
func normalizePieces(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, models.MaxPieces)
	for _, p := range in {
		p = strings.TrimSpace(p)
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
		if len(out) == models.MaxPieces {
			break
		}
	}
	return out
}

func invalidTransition(r *models.Reservation, action string) error {
	return fmt.Errorf("%w: cannot %s reservation %s in status %s", ErrInvalidTransition, action, r.ID, r.Status)
}

// Confirm moves pending → confirmed.
func (s *Store) Confirm(ctx context.Context, id string) (models.Reservation, error) {
	return s.mutate(ctx, id, models.EventReservationConfirmed, func(r *models.Reservation, now time.Time) error {
		if r.Status != models.StatusPending {
			return invalidTransition(r, "confirm")
		}
		r.Status = models.StatusConfirmed
		r.ConfirmedAt = &now
		return nil
	})
}

// CheckIn moves confirmed → checked_in. A pending reservation scanned at the
// booth is confirmed and checked in at once.
func (s *Store) CheckIn(ctx context.Context, id string) (models.Reservation, error) {
	return s.mutate(ctx, id, models.EventReservationCheckedIn, func(r *models.Reservation, now time.Time) error {
		switch r.Status {
		case models.StatusPending:
			r.ConfirmedAt = &now
		case models.StatusConfirmed:
		default:
			return invalidTransition(r, "check in")
		}
		r.Status = models.StatusCheckedIn
		r.CheckedInAt = &now
		return nil
	})
}

// ProcessPayment records the in-booth payment and the pieces bought, and
// moves checked_in → ready.
func (s *Store) ProcessPayment(ctx context.Context, id string, amount float64, selectedPieceIDs []string) (models.Reservation, error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return models.Reservation{}, fmt.Errorf("%w: got %v", ErrInvalidAmount, amount)
	}

	return s.mutate(ctx, id, models.EventReservationPaid, func(r *models.Reservation, now time.Time) error {
		if r.Status != models.StatusCheckedIn {
			return invalidTransition(r, "take payment for")
		}

		selected := make([]string, 0, len(selectedPieceIDs))
		seen := make(map[string]bool, len(selectedPieceIDs))
		for _, p := range selectedPieceIDs {
			p = strings.TrimSpace(p)
			if seen[p] {
				continue
			}
			if !r.HasPiece(p) {
				return fmt.Errorf("%w: %q is not reserved on %s", ErrInvalidSelection, p, r.ID)
			}
			seen[p] = true
			selected = append(selected, p)
		}
		if len(selected) == 0 {
			return ErrInvalidSelection
		}

		paid := amount
		r.PaymentAmount = &paid
		r.PaymentStatus = models.PaymentPaid
		r.SelectedForPurchase = selected
		r.PaidAt = &now
		r.Status = models.StatusReady
		return nil
	})
}

// MarkPickedUp moves ready → picked_up.
func (s *Store) MarkPickedUp(ctx context.Context, id string) (models.Reservation, error) {
	return s.mutate(ctx, id, models.EventReservationPickedUp, func(r *models.Reservation, now time.Time) error {
		if r.Status != models.StatusReady {
			return invalidTransition(r, "mark picked up")
		}
		r.Status = models.StatusPickedUp
		r.PickedUpAt = &now
		return nil
	})
}

// CancelReservation ends any non-terminal reservation.
func (s *Store) CancelReservation(ctx context.Context, id string) (models.Reservation, error) {
	return s.mutate(ctx, id, models.EventReservationCancelled, func(r *models.Reservation, now time.Time) error {
		if r.Status.Terminal() {
			return invalidTransition(r, "cancel")
		}
		r.Status = models.StatusCancelled
		r.CancelledAt = &now
		return nil
	})
}

// AddNote appends a timestamped line to the notes. Status, payment and
// pieces are untouched; blank text changes nothing.
func (s *Store) AddNote(ctx context.Context, id, text string) (models.Reservation, error) {
	text = strings.TrimSpace(text)
	return s.mutate(ctx, id, models.EventReservationNoted, func(r *models.Reservation, now time.Time) error {
		if text == "" {
			return errNoChange
		}
		line := fmt.Sprintf("[%s] %s", now.Format(time.RFC3339), text)
		if r.Notes == "" {
			r.Notes = line
		} else {
			r.Notes += "\n" + line
		}
		return nil
	})
}

// UpdateReservation merges metadata edits. Pieces may only change before
// check-in.
func (s *Store) UpdateReservation(ctx context.Context, id string, upd ReservationUpdate) (models.Reservation, error) {
	return s.mutate(ctx, id, models.EventReservationUpdated, func(r *models.Reservation, now time.Time) error {
		if upd.ExpectedVersion != nil && *upd.ExpectedVersion != r.Version {
			return fmt.Errorf("%w: %s is at version %d, update expected %d", ErrVersionConflict, r.ID, r.Version, *upd.ExpectedVersion)
		}
		if upd.UserName == nil && upd.UserEmail == nil && upd.AlternateFestival == nil && upd.Pieces == nil {
			return errNoChange
		}

		if upd.UserName != nil {
			r.UserName = strings.TrimSpace(*upd.UserName)
		}
		if upd.UserEmail != nil {
			email := strings.TrimSpace(*upd.UserEmail)
			if email == "" {
				return fmt.Errorf("%w: user email cannot be blank", ErrInvalidReservation)
			}
			r.UserEmail = email
		}
		if upd.AlternateFestival != nil {
			alternate := strings.TrimSpace(*upd.AlternateFestival)
			if err := s.checkAlternateLocked(r.PrimaryFestival, alternate); err != nil {
				return err
			}
			r.AlternateFestival = alternate
		}
		if upd.Pieces != nil {
			if r.Status != models.StatusPending && r.Status != models.StatusConfirmed {
				return invalidTransition(r, "change pieces on")
			}
			pieces := normalizePieces(upd.Pieces)
			if len(pieces) == 0 {
				return fmt.Errorf("%w: at least one piece is required", ErrInvalidReservation)
			}
			r.Pieces = pieces
		}
		return nil
	})
}
