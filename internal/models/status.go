package models

import "fmt"

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCheckedIn Status = "checked_in"
	StatusReady     Status = "ready"
	StatusPickedUp  Status = "picked_up"
	StatusCancelled Status = "cancelled"
)

// Statuses lists every lifecycle status in workflow order.
var Statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusCheckedIn,
	StatusReady,
	StatusPickedUp,
	StatusCancelled,
}

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCheckedIn, StatusReady, StatusPickedUp, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown reservation status: %q", s)
	}
}

// Terminal reports whether no transition may leave s.
func (s Status) Terminal() bool {
	return s == StatusPickedUp || s == StatusCancelled
}

func (s Status) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)
