// Package distance computes road distances between two points.
package distance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ridehail/internal/domain"
)

// Provider returns the travel distance between two points in kilometers.
type Provider interface {
	DistanceKm(ctx context.Context, from, to domain.Point) (float64, error)
}

// ProviderFunc adapts a function to the Provider interface.
type ProviderFunc func(ctx context.Context, from, to domain.Point) (float64, error)

// DistanceKm calls f.
func (f ProviderFunc) DistanceKm(ctx context.Context, from, to domain.Point) (float64, error) {
	return f(ctx, from, to)
}

// Haversine is a Provider that returns the great-circle distance. It never fails.
type Haversine struct{}

// DistanceKm returns the great-circle distance between from and to.
func (Haversine) DistanceKm(_ context.Context, from, to domain.Point) (float64, error) {
	return from.HaversineKm(to), nil
}

// timeoutProvider bounds every call of the wrapped provider.
type timeoutProvider struct {
	next    Provider
	timeout time.Duration
}

// WithTimeout wraps p so each call is cancelled after timeout. Every failure,
// including expiry, is reported as domain.ErrDistanceUnavailable.
func WithTimeout(p Provider, timeout time.Duration) Provider {
	return &timeoutProvider{next: p, timeout: timeout}
}

func (t *timeoutProvider) DistanceKm(ctx context.Context, from, to domain.Point) (float64, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	km, err := t.next.DistanceKm(ctx, from, to)
	if err != nil {
		if errors.Is(err, domain.ErrDistanceUnavailable) {
			return 0, err
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrDistanceUnavailable, err)
	}
	if km < 0 {
		return 0, fmt.Errorf("%w: negative distance %f", domain.ErrDistanceUnavailable, km)
	}
	return km, nil
}
