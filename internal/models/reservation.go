package models

import "time"

// MaxPieces is the most pieces a single try-on reservation may hold.
const MaxPieces = 3

type Reservation struct {
	ID     string `json:"id"`
	QRCode string `json:"qr_code"`

	UserID    string `json:"user_id"`
	UserEmail string `json:"user_email"`
	UserName  string `json:"user_name,omitempty"`

	Pieces            []string `json:"pieces"`
	PrimaryFestival   string   `json:"primary_festival"`
	AlternateFestival string   `json:"alternate_festival,omitempty"`

	Status              Status        `json:"status"`
	PaymentStatus       PaymentStatus `json:"payment_status"`
	PaymentAmount       *float64      `json:"payment_amount,omitempty"`
	SelectedForPurchase []string      `json:"selected_for_purchase,omitempty"`
	Notes               string        `json:"notes,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
	PickedUpAt  *time.Time `json:"picked_up_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	// Version increases by one on every mutation.
	Version int `json:"version"`
}

// Clone returns a deep copy so callers never share slices or pointers with
// the store.
func (r Reservation) Clone() Reservation {
	c := r
	c.Pieces = cloneStrings(r.Pieces)
	c.SelectedForPurchase = cloneStrings(r.SelectedForPurchase)
	c.PaymentAmount = cloneFloat(r.PaymentAmount)
	c.ConfirmedAt = cloneTime(r.ConfirmedAt)
	c.CheckedInAt = cloneTime(r.CheckedInAt)
	c.PaidAt = cloneTime(r.PaidAt)
	c.PickedUpAt = cloneTime(r.PickedUpAt)
	c.CancelledAt = cloneTime(r.CancelledAt)
	return c
}

// HasPiece reports whether pieceID is one of the reserved pieces.
func (r Reservation) HasPiece(pieceID string) bool {
	for _, p := range r.Pieces {
		if p == pieceID {
			return true
		}
	}
	return false
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
