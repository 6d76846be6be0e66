package service

import (
	"context"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// cancelRide moves a CONFIRMED ride to CANCELLED and frees its driver in one
// transaction. isOwner decides whether the resolved actor may cancel.
func cancelRide(
	ctx context.Context,
	store repository.Store,
	rideID string,
	by domain.Role,
	at time.Time,
	isOwner func(ride *domain.Ride) bool,
) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	var cancelled *domain.Ride
	err := store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ride, err := repos.Rides.GetByIDForUpdate(ctx, rideID)
		if err != nil {
			return notFound(err, ErrRideNotFound)
		}

		if !isOwner(ride) {
			if by == domain.RoleDriver {
				return ErrDriverCouldNotAccept
			}
			return ErrNotRideRider
		}

		if !ride.Status.CanTransition(domain.RideStatusCancelled) {
			return ErrRideCannotBeCancelled
		}

		ride.Status = domain.RideStatusCancelled
		ride.CancelledAt = at
		ride.CancelledBy = by

		ok, err := repos.Rides.Transition(ctx, ride, domain.RideStatusConfirmed)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRideCannotBeCancelled
		}

		if err := repos.Drivers.SetAvailable(ctx, ride.DriverID, true); err != nil {
			return err
		}

		cancelled = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cancelled, nil
}
