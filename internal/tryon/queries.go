package tryon

import (
	"strings"

	"ms-tryon/internal/models"
	"ms-tryon/internal/tryon/qr"
)

func (s *Store) festivalLocked(id string) (models.Festival, bool) {
	for _, f := range s.festivals {
		if f.ID == id {
			return f, true
		}
	}
	return models.Festival{}, false
}

func (s *Store) GetFestival(id string) (models.Festival, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.festivalLocked(id)
}

func (s *Store) Festivals() []models.Festival {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneFestivals(s.festivals)
}

func (s *Store) GetAvailableFestivals() []models.Festival {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Festival, 0, len(s.festivals))
	for _, f := range s.festivals {
		if f.Available {
			out = append(out, f)
		}
	}
	return out
}

func (s *Store) GetReservation(id string) (models.Reservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byID[id]
	if !ok {
		return models.Reservation{}, false
	}
	return r.Clone(), true
}

// GetReservationByQR ignores surrounding whitespace and letter case.
func (s *Store) GetReservationByQR(code string) (models.Reservation, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return models.Reservation{}, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.byQR[code]
	if !ok {
		return models.Reservation{}, false
	}
	return r.Clone(), true
}

// LookupScanned resolves a raw code or a scanned pickup URL.
func (s *Store) LookupScanned(payload string) (models.Reservation, bool) {
	return s.GetReservationByQR(qr.ExtractCode(payload))
}

// GetUserReservations returns the user's reservations in creation order.
func (s *Store) GetUserReservations(userID string) []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Reservation{}
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r.Clone())
		}
	}
	return out
}

// ReservationFilter narrows ListReservations. Zero values match everything.
type ReservationFilter struct {
	FestivalID string
	Status     models.Status
}

func (f ReservationFilter) matches(r *models.Reservation) bool {
	if f.FestivalID != "" && r.PrimaryFestival != f.FestivalID && r.AlternateFestival != f.FestivalID {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// ListReservations backs the admin overview, in creation order.
func (s *Store) ListReservations(filter ReservationFilter) []models.Reservation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Reservation{}
	for _, r := range s.reservations {
		if filter.matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}
