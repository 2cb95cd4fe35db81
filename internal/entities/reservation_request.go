package entities

import "time"

type ReservationRequest struct {
	LotID           int       `json:"lot_id"`
	UserName        string    `json:"user_name"`
	UserEmail       string    `json:"user_email"`
	UserPhone       string    `json:"user_phone"`
	VehiclePlate    string    `json:"vehicle_plate"`
	VehicleModel    string    `json:"vehicle_model"`
	PaymentMethodID string    `json:"payment_method_id"`
	CustomerID      string    `json:"customer_id,omitempty"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
}

type CancelRequest struct {
	Reason string `json:"reason"`
}

type ExtendRequest struct {
	AdditionalHours float64 `json:"additional_hours"`
	PaymentMethodID string  `json:"payment_method_id"`
}
