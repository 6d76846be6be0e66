package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RideStatus represents the lifecycle state of a ride.
type RideStatus string

const (
	RideStatusConfirmed RideStatus = "CONFIRMED"
	RideStatusOngoing   RideStatus = "ONGOING"
	RideStatusEnded     RideStatus = "ENDED"
	RideStatusCancelled RideStatus = "CANCELLED"
)

var rideTransitions = map[RideStatus][]RideStatus{
	RideStatusConfirmed: {RideStatusOngoing, RideStatusCancelled},
	RideStatusOngoing:   {RideStatusEnded},
}

// CanTransition reports whether a ride may move from s to next.
// ENDED and CANCELLED are terminal.
func (s RideStatus) CanTransition(next RideStatus) bool {
	for _, allowed := range rideTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentMethod is how the rider pays for a ride.
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodWallet PaymentMethod = "WALLET"
)

// Valid reports whether m is a supported method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCash || m == PaymentMethodWallet
}

// Ride is the execution of an accepted ride request.
type Ride struct {
	ID            string
	RideRequestID string
	RiderID       string
	DriverID      string
	Pickup        Point
	Dropoff       Point
	PaymentMethod PaymentMethod
	Status        RideStatus
	OTP           string
	Fare          decimal.Decimal
	CreatedAt     time.Time
	StartedAt     time.Time
	EndedAt       time.Time
	CancelledAt   time.Time
	CancelledBy   Role
}
