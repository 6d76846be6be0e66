package repository

import (
	"context"

	"ridehail/internal/domain"
)

// RideRequestRepository defines the persistence operations for ride requests.
type RideRequestRepository interface {
	// Create persists a new ride request.
	Create(ctx context.Context, req *domain.RideRequest) error

	// GetByID retrieves a ride request by ID.
	GetByID(ctx context.Context, id string) (*domain.RideRequest, error)

	// UpdateStatus moves a request from one status to another. It reports
	// false when the stored status was no longer from.
	UpdateStatus(ctx context.Context, id string, from, to domain.RideRequestStatus) (bool, error)

	// ListByRider returns a rider's requests, newest first.
	ListByRider(ctx context.Context, riderID string, page Page) ([]*domain.RideRequest, error)

	// CountPendingNear counts PENDING requests whose pickup lies within radiusKm of p.
	CountPendingNear(ctx context.Context, p domain.Point, radiusKm float64) (int, error)
}

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetByIDForUpdate retrieves a ride and locks it until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error)

	// Transition writes the ride's status and lifecycle timestamps if the
	// stored status is still from. It reports false otherwise.
	Transition(ctx context.Context, ride *domain.Ride, from domain.RideStatus) (bool, error)

	// ListByRider returns a rider's rides, newest first.
	ListByRider(ctx context.Context, riderID string, page Page) ([]*domain.Ride, error)

	// ListByDriver returns a driver's rides, newest first.
	ListByDriver(ctx context.Context, driverID string, page Page) ([]*domain.Ride, error)
}

// RatingRepository defines the persistence operations for ratings.
type RatingRepository interface {
	// Create persists a rating. Returns ErrConflict if this side already rated the ride.
	Create(ctx context.Context, rating *domain.Rating) error

	// Average returns the mean score received by a driver or rider profile
	// and the number of ratings it is based on.
	Average(ctx context.Context, rateeID string) (float64, int, error)
}
