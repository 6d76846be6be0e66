package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusConfirmed PaymentStatus = "CONFIRMED"
)

// Payment is the settlement record of a ride. There is at most one per ride.
type Payment struct {
	ID          string
	RideID      string
	Method      PaymentMethod
	Amount      decimal.Decimal
	Status      PaymentStatus
	CreatedAt   time.Time
	ConfirmedAt time.Time
}
