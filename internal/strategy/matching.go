package strategy

import (
	"context"
	"log/slog"
	"sort"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// MatchingPolicy names a matching strategy.
type MatchingPolicy string

const (
	MatchingPolicyNearest      MatchingPolicy = "nearest"
	MatchingPolicyHighestRated MatchingPolicy = "highest_rated"
)

// MatchingConfig bounds the candidate search.
type MatchingConfig struct {
	RadiusKm float64
	Limit    int
	PoolSize int // candidates considered before ranking by rating

	// TopRatedThreshold is the rider rating from which riders are matched
	// by driver rating rather than distance.
	TopRatedThreshold float64
}

// DefaultMatchingConfig returns the default matching configuration.
func DefaultMatchingConfig() MatchingConfig {
	return MatchingConfig{
		RadiusKm:          10,
		Limit:             10,
		PoolSize:          50,
		TopRatedThreshold: 4.8,
	}
}

// CandidateSource lists available drivers around a point, nearest first.
type CandidateSource interface {
	Candidates(ctx context.Context, p domain.Point, radiusKm float64, limit int) ([]*domain.Driver, error)
}

// MatchingStrategy proposes drivers for a ride request. It does not reserve them.
type MatchingStrategy interface {
	FindMatchingDrivers(ctx context.Context, req *domain.RideRequest) ([]*domain.Driver, error)
}

// NearestDriver proposes the closest available drivers.
type NearestDriver struct {
	source CandidateSource
	config MatchingConfig
}

// FindMatchingDrivers returns up to Limit available drivers within RadiusKm, nearest first.
func (m *NearestDriver) FindMatchingDrivers(ctx context.Context, req *domain.RideRequest) ([]*domain.Driver, error) {
	return m.source.Candidates(ctx, req.Pickup, m.config.RadiusKm, m.config.Limit)
}

// HighestRatedDriver proposes the best-rated available drivers nearby.
type HighestRatedDriver struct {
	source CandidateSource
	config MatchingConfig
}

// FindMatchingDrivers returns up to Limit available drivers within RadiusKm,
// best rating first. Equal ratings keep their distance order.
func (m *HighestRatedDriver) FindMatchingDrivers(ctx context.Context, req *domain.RideRequest) ([]*domain.Driver, error) {
	pool := max(m.config.PoolSize, m.config.Limit)
	drivers, err := m.source.Candidates(ctx, req.Pickup, m.config.RadiusKm, pool)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(drivers, func(i, j int) bool {
		return drivers[i].Rating > drivers[j].Rating
	})

	if len(drivers) > m.config.Limit {
		drivers = drivers[:m.config.Limit]
	}
	return drivers, nil
}

// MatchingRegistry resolves the matching strategy for a rider.
type MatchingRegistry struct {
	strategies map[MatchingPolicy]MatchingStrategy
	threshold  float64
}

// NewMatchingRegistry registers the nearest and highest-rated strategies over source.
func NewMatchingRegistry(source CandidateSource, config MatchingConfig) *MatchingRegistry {
	return &MatchingRegistry{
		strategies: map[MatchingPolicy]MatchingStrategy{
			MatchingPolicyNearest:      &NearestDriver{source: source, config: config},
			MatchingPolicyHighestRated: &HighestRatedDriver{source: source, config: config},
		},
		threshold: config.TopRatedThreshold,
	}
}

// Policy returns the policy applied to a rider.
func (r *MatchingRegistry) Policy(rider *domain.Rider) MatchingPolicy {
	if rider != nil && rider.Rating >= r.threshold {
		return MatchingPolicyHighestRated
	}
	return MatchingPolicyNearest
}

// Select returns the strategy applied to a rider.
func (r *MatchingRegistry) Select(rider *domain.Rider) MatchingStrategy {
	return r.strategies[r.Policy(rider)]
}

// RepositoryCandidates reads candidates straight from the driver repository.
type RepositoryCandidates struct {
	drivers repository.DriverRepository
}

// NewRepositoryCandidates creates a CandidateSource backed by the database.
func NewRepositoryCandidates(drivers repository.DriverRepository) *RepositoryCandidates {
	return &RepositoryCandidates{drivers: drivers}
}

// Candidates returns available drivers within radiusKm, nearest first.
func (c *RepositoryCandidates) Candidates(ctx context.Context, p domain.Point, radiusKm float64, limit int) ([]*domain.Driver, error) {
	return c.drivers.ListAvailableNear(ctx, p, radiusKm, limit)
}

// GeoCandidates finds drivers in the Redis GEO index and resolves their
// profiles through the driver cache, falling back to the repository.
type GeoCandidates struct {
	locations redis.LocationStoreInterface
	cache     redis.DriverCacheInterface
	drivers   repository.DriverRepository
	logger    *slog.Logger
}

// NewGeoCandidates creates a CandidateSource backed by Redis.
func NewGeoCandidates(
	locations redis.LocationStoreInterface,
	cache redis.DriverCacheInterface,
	drivers repository.DriverRepository,
	logger *slog.Logger,
) *GeoCandidates {
	return &GeoCandidates{
		locations: locations,
		cache:     cache,
		drivers:   drivers,
		logger:    logger,
	}
}

// Candidates returns available drivers within radiusKm, nearest first.
func (c *GeoCandidates) Candidates(ctx context.Context, p domain.Point, radiusKm float64, limit int) ([]*domain.Driver, error) {
	// Unavailable drivers stay in the index, so over-fetch before filtering.
	nearby, err := c.locations.FindNearbyDrivers(ctx, p, radiusKm, 0)
	if err != nil {
		return nil, err
	}
	if len(nearby) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(nearby))
	for _, loc := range nearby {
		ids = append(ids, loc.DriverID)
	}

	profiles, missing, err := c.cache.GetDriversBatch(ctx, ids)
	if err != nil {
		c.logger.WarnContext(ctx, "driver cache read failed", "error", err)
		profiles, missing = make(map[string]*domain.Driver), ids
	}

	if len(missing) > 0 {
		loaded, err := c.drivers.GetByIDs(ctx, missing)
		if err != nil {
			return nil, err
		}
		for _, d := range loaded {
			profiles[d.ID] = d
		}
		if err := c.cache.SetDriversBatch(ctx, loaded); err != nil {
			c.logger.WarnContext(ctx, "driver cache write failed", "error", err)
		}
		c.pruneUnknown(ctx, missing, profiles)
	}

	var out []*domain.Driver
	for _, loc := range nearby {
		d, ok := profiles[loc.DriverID]
		if !ok || !d.Available {
			continue
		}
		d.Location = loc.Point
		out = append(out, d)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// pruneUnknown drops index entries whose driver profile no longer exists.
func (c *GeoCandidates) pruneUnknown(ctx context.Context, ids []string, profiles map[string]*domain.Driver) {
	for _, id := range ids {
		if _, ok := profiles[id]; ok {
			continue
		}
		if err := c.locations.RemoveLocation(ctx, id); err != nil {
			c.logger.WarnContext(ctx, "stale driver location not removed", "driver_id", id, "error", err)
		}
	}
}
