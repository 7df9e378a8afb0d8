package models

import "time"

// Snapshot is the whole store state, persisted as one named record.
type Snapshot struct {
	Festivals    []Festival    `json:"festivals"`
	Reservations []Reservation `json:"reservations"`
	SavedAt      time.Time     `json:"saved_at"`
}
