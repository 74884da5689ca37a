package models

import "time"

// Offer statuses for the legacy bidding path.
const (
	OfferPending   = "pending"
	OfferAccepted  = "accepted"
	OfferRejected  = "rejected"
	OfferCompleted = "completed"
)

// Load types a transporter can offer.
const (
	LoadTypeReturn = "return"
	LoadTypeShared = "shared"
)

// Offer is a transporter's priced bid against a request. At most one offer
// per request may hold the accepted status.
type Offer struct {
	ID            int        `json:"id"`
	RequestID     int        `json:"request_id"`
	TransporterID int        `json:"transporter_id"`
	Amount        float64    `json:"amount"`
	PickupDate    *time.Time `json:"pickup_date,omitempty"`
	LoadType      string     `json:"load_type"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

type CreateOfferInput struct {
	RequestID     int     `json:"request_id"`
	TransporterID int     `json:"transporter_id"`
	Amount        float64 `json:"amount"`
	PickupDate    *string `json:"pickup_date,omitempty"`
	LoadType      string  `json:"load_type"`
}
