package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"ridehail/internal/domain"
)

// DriverCacheTTL bounds how stale a cached driver can be. Availability is
// rechecked by a conditional update on acceptance, so staleness only costs a
// wasted candidate.
const DriverCacheTTL = 30 * time.Second

const driverCachePrefix = "cache:driver:"

// CacheStore caches driver profiles in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// cachedDriver is the JSON form of a cached driver.
type cachedDriver struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Rating    float64 `json:"rating"`
	Available bool    `json:"available"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	VehicleID string  `json:"vehicle_id"`
}

func toCached(d *domain.Driver) cachedDriver {
	return cachedDriver{
		ID:        d.ID,
		UserID:    d.UserID,
		Rating:    d.Rating,
		Available: d.Available,
		Lat:       d.Location.Lat,
		Lng:       d.Location.Lng,
		VehicleID: d.VehicleID,
	}
}

func (c cachedDriver) toDomain() *domain.Driver {
	return &domain.Driver{
		ID:        c.ID,
		UserID:    c.UserID,
		Rating:    c.Rating,
		Available: c.Available,
		Location:  domain.Point{Lat: c.Lat, Lng: c.Lng},
		VehicleID: c.VehicleID,
	}
}

// GetDriversBatch retrieves multiple drivers using a pipeline.
// Returns the hits keyed by ID and the IDs that were missing or unreadable.
func (s *CacheStore) GetDriversBatch(ctx context.Context, driverIDs []string) (map[string]*domain.Driver, []string, error) {
	result := make(map[string]*domain.Driver, len(driverIDs))
	if len(driverIDs) == 0 {
		return result, nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(driverIDs))
	for i, id := range driverIDs {
		cmds[i] = pipe.Get(ctx, driverCachePrefix+id)
	}

	// Exec reports redis.Nil when any key is missing; each command is checked below.
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, nil, err
	}

	var missing []string
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			missing = append(missing, driverIDs[i])
			continue
		}

		var cached cachedDriver
		if err := json.Unmarshal(data, &cached); err != nil {
			missing = append(missing, driverIDs[i])
			continue
		}
		result[driverIDs[i]] = cached.toDomain()
	}

	return result, missing, nil
}

// SetDriversBatch stores multiple drivers using a pipeline.
func (s *CacheStore) SetDriversBatch(ctx context.Context, drivers []*domain.Driver) error {
	if len(drivers) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, driver := range drivers {
		data, err := json.Marshal(toCached(driver))
		if err != nil {
			return err
		}
		pipe.Set(ctx, driverCachePrefix+driver.ID, data, DriverCacheTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// InvalidateDriver removes a driver from cache.
func (s *CacheStore) InvalidateDriver(ctx context.Context, driverID string) error {
	return s.client.Del(ctx, driverCachePrefix+driverID).Err()
}
