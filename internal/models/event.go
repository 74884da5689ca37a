package models

// RequestEvent is pushed to connected clients over the websocket hub whenever
// a request transition commits. Delivery is fire-and-forget: a failed push
// never affects the committed transition.
type RequestEvent struct {
	Type          string `json:"type"`
	RequestID     int    `json:"request_id"`
	Status        string `json:"status,omitempty"`
	PaymentStatus string `json:"payment_status,omitempty"`
}
