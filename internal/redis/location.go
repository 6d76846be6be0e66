package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"ridehail/internal/domain"
)

const driverLocationKey = "drivers:locations"

// DriverLocation is a driver's indexed position and its distance from the query point.
type DriverLocation struct {
	DriverID   string
	Point      domain.Point
	DistanceKm float64
}

// LocationStore keeps driver positions in a Redis GEO index.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// UpdateLocation stores a driver's location using GEOADD.
func (s *LocationStore) UpdateLocation(ctx context.Context, driverID string, p domain.Point) error {
	return s.client.GeoAdd(ctx, driverLocationKey, &redis.GeoLocation{
		Name:      driverID,
		Longitude: p.Lng,
		Latitude:  p.Lat,
	}).Err()
}

// FindNearbyDrivers returns indexed drivers within radiusKm of p, nearest
// first. A limit of zero returns all of them.
func (s *LocationStore) FindNearbyDrivers(ctx context.Context, p domain.Point, radiusKm float64, limit int) ([]DriverLocation, error) {
	results, err := s.client.GeoSearchLocation(ctx, driverLocationKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  p.Lng,
			Latitude:   p.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]DriverLocation, 0, len(results))
	for _, r := range results {
		locations = append(locations, DriverLocation{
			DriverID:   r.Name,
			Point:      domain.Point{Lat: r.Latitude, Lng: r.Longitude},
			DistanceKm: r.Dist,
		})
	}
	return locations, nil
}

// RemoveLocation drops a driver from the GEO index.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	return s.client.ZRem(ctx, driverLocationKey, driverID).Err()
}
