// Package strategy holds the pluggable pricing, matching and settlement
// policies. Each family is resolved through a registry keyed by a tag.
package strategy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ridehail/internal/distance"
	"ridehail/internal/domain"
)

// ErrDistanceCalculationFailed is returned when no fare can be computed
// because the distance is unknown.
var ErrDistanceCalculationFailed = fmt.Errorf("%w: distance calculation failed", domain.ErrDistanceUnavailable)

// FarePolicy names a fare strategy.
type FarePolicy string

const (
	FarePolicyStandard FarePolicy = "standard"
	FarePolicySurge    FarePolicy = "surge"
)

// Quote is the outcome of a fare calculation.
type Quote struct {
	Policy     FarePolicy
	DistanceKm float64
	Fare       decimal.Decimal
}

// FareStrategy prices a ride request. Identical inputs and distance yield
// identical fares.
type FareStrategy interface {
	CalculateFare(ctx context.Context, req *domain.RideRequest) (Quote, error)
}

// StandardFare charges a flat rate per kilometer.
type StandardFare struct {
	distance  distance.Provider
	ratePerKm decimal.Decimal
}

// NewStandardFare creates a StandardFare.
func NewStandardFare(provider distance.Provider, ratePerKm decimal.Decimal) *StandardFare {
	return &StandardFare{distance: provider, ratePerKm: ratePerKm}
}

// CalculateFare returns distance × rate.
func (s *StandardFare) CalculateFare(ctx context.Context, req *domain.RideRequest) (Quote, error) {
	km, err := s.distance.DistanceKm(ctx, req.Pickup, req.Dropoff)
	if err != nil {
		return Quote{}, fmt.Errorf("%w: %v", ErrDistanceCalculationFailed, err)
	}
	return Quote{
		Policy:     FarePolicyStandard,
		DistanceKm: km,
		Fare:       decimal.NewFromFloat(km).Mul(s.ratePerKm).Round(2),
	}, nil
}

// SurgeFare applies the request's surge multiplier on top of the standard fare.
type SurgeFare struct {
	base *StandardFare
}

// NewSurgeFare creates a SurgeFare.
func NewSurgeFare(base *StandardFare) *SurgeFare {
	return &SurgeFare{base: base}
}

// CalculateFare returns the standard fare × req.SurgeMultiplier.
func (s *SurgeFare) CalculateFare(ctx context.Context, req *domain.RideRequest) (Quote, error) {
	quote, err := s.base.CalculateFare(ctx, req)
	if err != nil {
		return Quote{}, err
	}
	multiplier := req.SurgeMultiplier
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	quote.Policy = FarePolicySurge
	quote.Fare = decimal.NewFromFloat(quote.DistanceKm).
		Mul(s.base.ratePerKm).
		Mul(decimal.NewFromFloat(multiplier)).
		Round(2)
	return quote, nil
}

// FareRegistry resolves the fare strategy for a request.
type FareRegistry struct {
	strategies map[FarePolicy]FareStrategy
}

// NewFareRegistry registers the standard and surge strategies.
func NewFareRegistry(provider distance.Provider, ratePerKm decimal.Decimal) *FareRegistry {
	standard := NewStandardFare(provider, ratePerKm)
	return &FareRegistry{
		strategies: map[FarePolicy]FareStrategy{
			FarePolicyStandard: standard,
			FarePolicySurge:    NewSurgeFare(standard),
		},
	}
}

// Select returns the surge strategy when the request carries a multiplier
// above 1, and the standard strategy otherwise.
func (r *FareRegistry) Select(req *domain.RideRequest) FareStrategy {
	if req.SurgeMultiplier > 1.0 {
		return r.strategies[FarePolicySurge]
	}
	return r.strategies[FarePolicyStandard]
}
