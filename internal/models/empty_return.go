package models

import "time"

// EmptyReturn is a transporter-announced unladen return leg. An admin may
// consume it at most once to pre-assign an open request on the same route.
type EmptyReturn struct {
	ID            int        `json:"id"`
	TransporterID int        `json:"transporter_id"`
	FromCity      string     `json:"from_city"`
	ToCity        string     `json:"to_city"`
	ReturnDate    time.Time  `json:"return_date"`
	ConsumedBy    *int       `json:"consumed_by,omitempty"` // request id it was bound to
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

type CreateEmptyReturnInput struct {
	TransporterID int    `json:"transporter_id"`
	FromCity      string `json:"from_city"`
	ToCity        string `json:"to_city"`
	ReturnDate    string `json:"return_date"`
}
