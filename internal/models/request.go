package models

import (
	"strings"
	"time"
)

// Request is the central aggregate: a client's transport need moving through
// qualification, matching, execution and payment.
type Request struct {
	ID          int    `json:"id"`
	ReferenceID string `json:"reference_id"`
	ClientID    int    `json:"client_id"`

	FromCity    string  `json:"from_city"`
	ToCity      string  `json:"to_city"`
	FromAddress *string `json:"from_address,omitempty"`
	ToAddress   *string `json:"to_address,omitempty"`

	GoodsType   string     `json:"goods_type"`
	Description string     `json:"description"`
	Budget      float64    `json:"budget"` // client's initial guess, informational only
	PickupDate  *time.Time `json:"pickup_date,omitempty"`

	HandlingRequired bool  `json:"handling_required"`
	FromFloor        *int  `json:"from_floor,omitempty"`
	ToFloor          *int  `json:"to_floor,omitempty"`
	FromElevator     *bool `json:"from_elevator,omitempty"`
	ToElevator       *bool `json:"to_elevator,omitempty"`

	Status        string     `json:"status"`
	PaymentStatus string     `json:"payment_status"`
	QualifiedAt   *time.Time `json:"qualified_at,omitempty"`

	TransporterAmount float64 `json:"transporter_amount"`
	PlatformFee       float64 `json:"platform_fee"`
	ClientTotal       float64 `json:"client_total"`
	// CommissionAmount is the admin-facing display figure computed from the
	// global commission percentage. It is independent of PlatformFee.
	CommissionAmount float64 `json:"commission_amount,omitempty"`

	TransporterInterests  []int   `json:"transporter_interests"`
	DeclinedBy            []int   `json:"declined_by,omitempty"`
	AcceptedOfferID       *int    `json:"accepted_offer_id,omitempty"`
	AssignedTransporterID *int    `json:"assigned_transporter_id,omitempty"`
	PaymentReceipt        *string `json:"payment_receipt,omitempty"`
	ArchiveReason         *string `json:"archive_reason,omitempty"`
	Hidden                bool    `json:"hidden"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// Interest is one transporter's non-binding availability signal on a request.
type Interest struct {
	RequestID        int        `json:"request_id"`
	TransporterID    int        `json:"transporter_id"`
	AvailabilityDate *time.Time `json:"availability_date,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

type CreateRequestInput struct {
	ClientID         int     `json:"client_id"`
	FromCity         string  `json:"from_city"`
	ToCity           string  `json:"to_city"`
	FromAddress      *string `json:"from_address,omitempty"`
	ToAddress        *string `json:"to_address,omitempty"`
	GoodsType        string  `json:"goods_type"`
	Description      string  `json:"description"`
	Budget           float64 `json:"budget"`
	PickupDate       *string `json:"pickup_date,omitempty"`
	HandlingRequired bool    `json:"handling_required"`
	FromFloor        *int    `json:"from_floor,omitempty"`
	ToFloor          *int    `json:"to_floor,omitempty"`
	FromElevator     *bool   `json:"from_elevator,omitempty"`
	ToElevator       *bool   `json:"to_elevator,omitempty"`
}

type QualifyRequestInput struct {
	TransporterAmount float64 `json:"transporter_amount"`
	PlatformFee       float64 `json:"platform_fee"`
}

// Archive reason codes. Anything else is a validation error.
const (
	ArchiveReasonNoTransporter   = "no_transporter"
	ArchiveReasonClientCancelled = "client_cancelled"
	ArchiveReasonDuplicate       = "duplicate"
	ArchiveReasonSpam            = "spam"
	ArchiveReasonOther           = "other"
)

var archiveReasons = map[string]struct{}{
	ArchiveReasonNoTransporter:   {},
	ArchiveReasonClientCancelled: {},
	ArchiveReasonDuplicate:       {},
	ArchiveReasonSpam:            {},
	ArchiveReasonOther:           {},
}

// ValidArchiveReason reports whether reason belongs to the fixed reason set.
func ValidArchiveReason(reason string) bool {
	_, ok := archiveReasons[strings.TrimSpace(reason)]
	return ok
}

// SameCalendarDay compares two instants by calendar day, not by instant.
func SameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
