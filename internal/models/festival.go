package models

// Festival is static reference data: seeded at startup and never mutated by
// the reservation workflow.
type Festival struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Dates           string `json:"dates"`
	Location        string `json:"location"`
	City            string `json:"city"`
	Country         string `json:"country"`
	Available       bool   `json:"available"`
	PiecesAvailable int    `json:"pieces_available"`
	Description     string `json:"description,omitempty"`
}
