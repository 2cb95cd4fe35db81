package db

import "time"

// Reservation statuses. completed and cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Payment sub-states.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// Lot rate types.
const (
	RateHourly = "hourly"
	RatePermit = "permit"
)

type Reservation struct {
	ID                    int
	Code                  string
	LotID                 int
	UserName              string
	UserEmail             string
	UserPhone             string
	VehiclePlate          string
	VehicleModel          string
	RateType              string
	HourlyRate            float64
	TotalPrice            float64
	Status                string
	PaymentStatus         string
	StartTime             time.Time
	EndTime               time.Time
	StripePaymentIntentID string
	ReceiptURL            string
	CancelReason          string
	CancelledAt           *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Refund is written once as a side effect of cancellation or a
// price-reducing adjustment and never mutated afterward.
type Refund struct {
	ID             int
	ReservationID  int
	StripeRefundID string
	Amount         float64
	Status         string
	CreatedAt      time.Time
}

// Extension records one user-initiated increase of a reservation's end
// time. Rows are append-only and ordered by creation.
type Extension struct {
	ID                    int
	ReservationID         int
	Hours                 float64
	Amount                float64
	StripePaymentIntentID string
	CreatedAt             time.Time
}

// Lot carries the rate info and capacity counters this core reads. Rates
// are maintained elsewhere and never mutated here.
type Lot struct {
	ID              int
	Name            string
	RateType        string
	HourlyRate      float64
	SemesterRate    float64
	TotalSpaces     int
	AvailableSpaces int
	IsMetered       bool
	HasEVCharging   bool
	IsAccessible    bool
}
