package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RideRequestStatus represents the lifecycle state of a ride request.
type RideRequestStatus string

const (
	RideRequestStatusPending   RideRequestStatus = "PENDING"
	RideRequestStatusConfirmed RideRequestStatus = "CONFIRMED"
	RideRequestStatusCancelled RideRequestStatus = "CANCELLED"
)

// rideRequestTransitions lists the allowed next states for each state.
var rideRequestTransitions = map[RideRequestStatus][]RideRequestStatus{
	RideRequestStatusPending: {RideRequestStatusConfirmed, RideRequestStatusCancelled},
}

// CanTransition reports whether a request may move from s to next.
func (s RideRequestStatus) CanTransition(next RideRequestStatus) bool {
	for _, allowed := range rideRequestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RideRequest is a rider's ask for a ride. Fare is fixed at creation.
type RideRequest struct {
	ID              string
	RiderID         string
	Pickup          Point
	Dropoff         Point
	PaymentMethod   PaymentMethod
	Status          RideRequestStatus
	Fare            decimal.Decimal
	DistanceKm      float64
	SurgeMultiplier float64 // 1.0 = no surge
	RequestedAt     time.Time
}
