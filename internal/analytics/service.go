package analytics

import (
	"sort"

	"ms-tryon/internal/models"
)

// SnapshotSource is satisfied by *tryon.Store.
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// Service computes read-only reservation analytics from store snapshots
type Service struct {
	source SnapshotSource
}

func NewService(source SnapshotSource) *Service {
	return &Service{source: source}
}

// FestivalAnalytics represents aggregated try-on data for one festival
type FestivalAnalytics struct {
	FestivalID        string                `json:"festival_id"`
	FestivalName      string                `json:"festival_name"`
	TotalReservations int                   `json:"total_reservations"`
	ByStatus          map[models.Status]int `json:"by_status"`
	PaidCount         int                   `json:"paid_count"`
	Revenue           float64               `json:"revenue"`
	PiecesSold        int                   `json:"pieces_sold"`
	ConversionRate    float64               `json:"conversion_rate"`
	TopPieces         []PieceCount          `json:"top_pieces"`
	DailyReservations []DailyMetrics        `json:"daily_reservations"`
}

// PieceCount tracks how often a piece was tried or bought
type PieceCount struct {
	PieceID   string `json:"piece_id"`
	Reserved  int    `json:"reserved"`
	Purchased int    `json:"purchased"`
}

// DailyMetrics contains reservation activity for a single day
type DailyMetrics struct {
	Date         string  `json:"date"`
	Reservations int     `json:"reservations"`
	Revenue      float64 `json:"revenue"`
}

// Overview is the admin dashboard summary across all festivals
type Overview struct {
	TotalReservations int                   `json:"total_reservations"`
	ByStatus          map[models.Status]int `json:"by_status"`
	Revenue           float64               `json:"revenue"`
	ConversionRate    float64               `json:"conversion_rate"`
	Festivals         []FestivalAnalytics   `json:"festivals"`
}

const topPiecesLimit = 5

// GetOverview returns totals plus one entry per catalog festival, in
// catalog order. Festivals without reservations are included with zeros.
func (s *Service) GetOverview() Overview {
	snap := s.source.Snapshot()

	byFestival := make(map[string][]models.Reservation)
	for _, r := range snap.Reservations {
		byFestival[r.PrimaryFestival] = append(byFestival[r.PrimaryFestival], r)
	}

	overview := Overview{ByStatus: emptyStatusCounts()}
	for _, f := range snap.Festivals {
		fa := summarize(f.ID, f.Name, byFestival[f.ID])
		overview.Festivals = append(overview.Festivals, fa)
	}
	total := summarize("", "", snap.Reservations)
	overview.TotalReservations = total.TotalReservations
	overview.ByStatus = total.ByStatus
	overview.Revenue = total.Revenue
	overview.ConversionRate = total.ConversionRate
	return overview
}

// GetFestivalAnalytics returns false for a festival not in the catalog.
func (s *Service) GetFestivalAnalytics(festivalID string) (FestivalAnalytics, bool) {
	snap := s.source.Snapshot()
	for _, f := range snap.Festivals {
		if f.ID != festivalID {
			continue
		}
		var rs []models.Reservation
		for _, r := range snap.Reservations {
			if r.PrimaryFestival == festivalID {
				rs = append(rs, r)
			}
		}
		return summarize(f.ID, f.Name, rs), true
	}
	return FestivalAnalytics{}, false
}

func emptyStatusCounts() map[models.Status]int {
	counts := make(map[models.Status]int, len(models.Statuses))
	for _, st := range models.Statuses {
		counts[st] = 0
	}
	return counts
}

func summarize(festivalID, name string, rs []models.Reservation) FestivalAnalytics {
	fa := FestivalAnalytics{
		FestivalID:        festivalID,
		FestivalName:      name,
		TotalReservations: len(rs),
		ByStatus:          emptyStatusCounts(),
		TopPieces:         []PieceCount{},
		DailyReservations: []DailyMetrics{},
	}

	pieces := make(map[string]*PieceCount)
	piece := func(id string) *PieceCount {
		pc, ok := pieces[id]
		if !ok {
			pc = &PieceCount{PieceID: id}
			pieces[id] = pc
		}
		return pc
	}
	daily := make(map[string]*DailyMetrics)

	for _, r := range rs {
		fa.ByStatus[r.Status]++

		day := r.CreatedAt.UTC().Format("2006-01-02")
		dm, ok := daily[day]
		if !ok {
			dm = &DailyMetrics{Date: day}
			daily[day] = dm
		}
		dm.Reservations++

		for _, p := range r.Pieces {
			piece(p).Reserved++
		}
		if r.PaymentStatus == models.PaymentPaid && r.PaymentAmount != nil {
			fa.PaidCount++
			fa.Revenue += *r.PaymentAmount
			fa.PiecesSold += len(r.SelectedForPurchase)
			dm.Revenue += *r.PaymentAmount
			for _, p := range r.SelectedForPurchase {
				piece(p).Purchased++
			}
		}
	}

	if active := fa.TotalReservations - fa.ByStatus[models.StatusCancelled]; active > 0 {
		fa.ConversionRate = float64(fa.ByStatus[models.StatusPickedUp]) / float64(active)
	}

	for _, pc := range pieces {
		fa.TopPieces = append(fa.TopPieces, *pc)
	}
	sort.Slice(fa.TopPieces, func(i, j int) bool {
		a, b := fa.TopPieces[i], fa.TopPieces[j]
		if a.Purchased != b.Purchased {
			return a.Purchased > b.Purchased
		}
		if a.Reserved != b.Reserved {
			return a.Reserved > b.Reserved
		}
		return a.PieceID < b.PieceID
	})
	if len(fa.TopPieces) > topPiecesLimit {
		fa.TopPieces = fa.TopPieces[:topPiecesLimit]
	}

	for _, dm := range daily {
		fa.DailyReservations = append(fa.DailyReservations, *dm)
	}
	sort.Slice(fa.DailyReservations, func(i, j int) bool {
		return fa.DailyReservations[i].Date < fa.DailyReservations[j].Date
	})
	return fa
}
