package models

import "time"

type ReservationEventType string

const (
	EventReservationCreated   ReservationEventType = "reservation.created"
	EventReservationConfirmed ReservationEventType = "reservation.confirmed"
	EventReservationCheckedIn ReservationEventType = "reservation.checked_in"
	EventReservationPaid      ReservationEventType = "reservation.paid"
	EventReservationPickedUp  ReservationEventType = "reservation.picked_up"
	EventReservationCancelled ReservationEventType = "reservation.cancelled"
	EventReservationNoted     ReservationEventType = "reservation.note_added"
	EventReservationUpdated   ReservationEventType = "reservation.updated"
)

// ReservationEvent announces a committed reservation mutation to Kafka and
// live-status subscribers.
type ReservationEvent struct {
	Type          ReservationEventType `json:"type"`
	ReservationID string               `json:"reservation_id"`
	QRCode        string               `json:"qr_code"`
	UserID        string               `json:"user_id"`
	FestivalID    string               `json:"festival_id"`
	Status        Status               `json:"status"`
	Version       int                  `json:"version"`
	Origin        string               `json:"origin"`
	OccurredAt    time.Time            `json:"occurred_at"`
}

func NewReservationEvent(eventType ReservationEventType, r Reservation, origin string, at time.Time) ReservationEvent {
	return ReservationEvent{
		Type:          eventType,
		ReservationID: r.ID,
		QRCode:        r.QRCode,
		UserID:        r.UserID,
		FestivalID:    r.PrimaryFestival,
		Status:        r.Status,
		Version:       r.Version,
		Origin:        origin,
		OccurredAt:    at,
	}
}
