package redis

import (
	"context"
	"time"

	"ridehail/internal/domain"
)

// LocationStoreInterface defines the interface for driver location operations.
type LocationStoreInterface interface {
	UpdateLocation(ctx context.Context, driverID string, p domain.Point) error
	FindNearbyDrivers(ctx context.Context, p domain.Point, radiusKm float64, limit int) ([]DriverLocation, error)
	RemoveLocation(ctx context.Context, driverID string) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (string, error)
	ReleaseDriverLock(ctx context.Context, driverID, token string) error
}

// DriverCacheInterface defines the interface for the driver cache.
type DriverCacheInterface interface {
	GetDriversBatch(ctx context.Context, driverIDs []string) (map[string]*domain.Driver, []string, error)
	SetDriversBatch(ctx context.Context, drivers []*domain.Driver) error
	InvalidateDriver(ctx context.Context, driverID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ DriverCacheInterface   = (*CacheStore)(nil)
)
