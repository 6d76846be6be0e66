package repository

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment. Returns ErrConflict if the ride already has one.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByRideID retrieves the payment of a ride.
	GetByRideID(ctx context.Context, rideID string) (*domain.Payment, error)

	// GetByRideIDForUpdate retrieves the payment of a ride and locks it.
	GetByRideIDForUpdate(ctx context.Context, rideID string) (*domain.Payment, error)

	// Confirm flips a PENDING payment to CONFIRMED. It reports false when
	// the payment was not PENDING.
	Confirm(ctx context.Context, id string, at time.Time) (bool, error)
}
