package entities

import "time"

type RefundInfo struct {
	RefundID  string    `json:"refund_id"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type ExtensionInfo struct {
	Hours     float64   `json:"hours"`
	Amount    float64   `json:"amount"`
	PaymentID string    `json:"payment_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ReservationResponse struct {
	Code          string          `json:"code"`
	LotID         int             `json:"lot_id"`
	UserName      string          `json:"user_name"`
	UserEmail     string          `json:"user_email"`
	UserPhone     string          `json:"user_phone"`
	VehiclePlate  string          `json:"vehicle_plate"`
	VehicleModel  string          `json:"vehicle_model"`
	RateType      string          `json:"rate_type"`
	TotalPrice    float64         `json:"total_price"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	CancelReason  string          `json:"cancel_reason,omitempty"`
	CancelledAt   *time.Time      `json:"cancelled_at,omitempty"`
	Refunds       []RefundInfo    `json:"refunds,omitempty"`
	Extensions    []ExtensionInfo `json:"extensions,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type ReservationsList struct {
	Total        int                   `json:"total"`
	Reservations []ReservationResponse `json:"reservations"`
}

type SweepResponse struct {
	Completed int `json:"completed"`
}

type LotRateResponse struct {
	LotID         int     `json:"lot_id"`
	Name          string  `json:"name"`
	RateType      string  `json:"rate_type"`
	HourlyRate    float64 `json:"hourly_rate"`
	SemesterRate  float64 `json:"semester_rate"`
	IsMetered     bool    `json:"is_metered"`
	HasEVCharging bool    `json:"has_ev_charging"`
	IsAccessible  bool    `json:"is_accessible"`
}
