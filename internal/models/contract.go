package models

import "time"

// Contract statuses mirroring payment progress of a committed match.
const (
	ContractInProgress          = "in_progress"
	ContractMarkedPaidClient    = "marked_paid_client"
	ContractMarkedPaidTransport = "marked_paid_transporter"
	ContractCompleted           = "completed"
)

// Contract is the durable record of a committed match. Created once when a
// transporter is committed, never deleted, status-only mutation afterward.
type Contract struct {
	ID            int        `json:"id"`
	RequestID     int        `json:"request_id"`
	OfferID       *int       `json:"offer_id,omitempty"` // nil when the assignment was manual
	ClientID      int        `json:"client_id"`
	TransporterID int        `json:"transporter_id"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}
