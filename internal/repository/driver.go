package repository

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver. Returns ErrConflict if the user already drives.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetByUserID retrieves the driver profile of a user.
	GetByUserID(ctx context.Context, userID string) (*domain.Driver, error)

	// GetByIDs retrieves the drivers that exist among ids, in no particular order.
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Driver, error)

	// ListAvailableNear returns available drivers within radiusKm of p,
	// nearest first, at most limit.
	ListAvailableNear(ctx context.Context, p domain.Point, radiusKm float64, limit int) ([]*domain.Driver, error)

	// ClaimAvailability flips available from true to false. It reports false
	// when the driver was not available.
	ClaimAvailability(ctx context.Context, id string) (bool, error)

	// SetAvailable sets the availability flag unconditionally.
	SetAvailable(ctx context.Context, id string, available bool) error

	// UpdateLocation stores the last known position of a driver.
	UpdateLocation(ctx context.Context, id string, p domain.Point, at time.Time) error

	// UpdateRating stores a recomputed average rating.
	UpdateRating(ctx context.Context, id string, rating float64) error
}
