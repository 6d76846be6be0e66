package strategy

import (
	"context"
	"log/slog"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// SurgeConfig contains surge pricing configuration.
type SurgeConfig struct {
	RadiusKm       float64 // Radius to check for supply/demand
	LowSurgeRatio  float64 // Demand/supply ratio for 1.25x surge
	MedSurgeRatio  float64 // Demand/supply ratio for 1.5x surge
	HighSurgeRatio float64 // Demand/supply ratio for MaxSurge
	MaxSurge       float64
}

// DefaultSurgeConfig returns the default surge configuration.
func DefaultSurgeConfig() SurgeConfig {
	return SurgeConfig{
		RadiusKm:       5.0,
		LowSurgeRatio:  1.2,
		MedSurgeRatio:  1.5,
		HighSurgeRatio: 2.0,
		MaxSurge:       2.0,
	}
}

// DemandEstimator derives a surge multiplier from nearby supply and demand.
type DemandEstimator struct {
	locations redis.LocationStoreInterface
	requests  repository.RideRequestRepository
	config    SurgeConfig
	logger    *slog.Logger
}

// NewDemandEstimator creates a DemandEstimator.
func NewDemandEstimator(
	locations redis.LocationStoreInterface,
	requests repository.RideRequestRepository,
	config SurgeConfig,
	logger *slog.Logger,
) *DemandEstimator {
	return &DemandEstimator{
		locations: locations,
		requests:  requests,
		config:    config,
		logger:    logger,
	}
}

// Multiplier returns 1.0 when supply covers demand, up to MaxSurge otherwise.
// Lookup failures fail open to no surge.
func (e *DemandEstimator) Multiplier(ctx context.Context, p domain.Point) float64 {
	drivers, err := e.locations.FindNearbyDrivers(ctx, p, e.config.RadiusKm, 0)
	if err != nil {
		e.logger.WarnContext(ctx, "surge supply lookup failed", "error", err)
		return 1.0
	}

	demand, err := e.requests.CountPendingNear(ctx, p, e.config.RadiusKm)
	if err != nil {
		e.logger.WarnContext(ctx, "surge demand lookup failed", "error", err)
		return 1.0
	}

	return surgeMultiplier(len(drivers), demand, e.config)
}

// surgeMultiplier maps a demand/supply ratio onto a surge tier.
func surgeMultiplier(supply, demand int, config SurgeConfig) float64 {
	if supply == 0 {
		if demand > 0 {
			return config.MaxSurge
		}
		return 1.0
	}

	ratio := float64(demand) / float64(supply)

	switch {
	case ratio >= config.HighSurgeRatio:
		return config.MaxSurge
	case ratio >= config.MedSurgeRatio:
		return min(1.5, config.MaxSurge)
	case ratio >= config.LowSurgeRatio:
		return min(1.25, config.MaxSurge)
	default:
		return 1.0
	}
}
