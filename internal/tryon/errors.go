package tryon

import "errors"

var (
	// ErrNotFound is returned by mutations on an unknown reservation id.
	// Point lookups report absence with a bool instead.
	ErrNotFound = errors.New("reservation not found")

	// ErrInvalidTransition means the current status does not allow the
	// requested operation.
	ErrInvalidTransition = errors.New("invalid status transition")

	ErrInvalidAmount      = errors.New("payment amount must be a positive finite number")
	ErrInvalidSelection   = errors.New("selected pieces must be a non-empty subset of the reserved pieces")
	ErrInvalidReservation = errors.New("invalid reservation")
	ErrUnknownFestival    = errors.New("unknown festival")
	ErrFestivalClosed     = errors.New("festival is not open for try-on reservations")

	// ErrVersionConflict is returned when an update carries a stale version.
	ErrVersionConflict = errors.New("reservation was modified concurrently")

	// ErrNotPersisted wraps a failed durable write. The in-memory mutation
	// stands; the change may be lost on restart.
	ErrNotPersisted = errors.New("change applied but not persisted")
)
