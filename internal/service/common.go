package service

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"strconv"

	"ridehail/internal/domain"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

// riderForActor resolves the rider profile of the acting user.
func riderForActor(ctx context.Context, repos repository.Repositories, actor domain.Principal) (*domain.Rider, error) {
	if actor.UserID == "" {
		return nil, ErrInvalidActor
	}
	rider, err := repos.Riders.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, ErrRiderNotFound)
	}
	return rider, nil
}

// driverForActor resolves the driver profile of the acting user.
func driverForActor(ctx context.Context, repos repository.Repositories, actor domain.Principal) (*domain.Driver, error) {
	if actor.UserID == "" {
		return nil, ErrInvalidActor
	}
	driver, err := repos.Drivers.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, ErrDriverNotFound)
	}
	return driver, nil
}

// participantRole returns the role in which the actor takes part in a ride.
func participantRole(ctx context.Context, repos repository.Repositories, actor domain.Principal, ride *domain.Ride) (domain.Role, error) {
	if actor.UserID == "" {
		return "", ErrInvalidActor
	}
	if rider, err := repos.Riders.GetByUserID(ctx, actor.UserID); err == nil && rider.ID == ride.RiderID {
		return domain.RoleRider, nil
	}
	if driver, err := repos.Drivers.GetByUserID(ctx, actor.UserID); err == nil && driver.ID == ride.DriverID {
		return domain.RoleDriver, nil
	}
	return "", ErrNotRideParticipant
}

// invalidateDriver drops a driver from the cache after its availability changed.
func invalidateDriver(ctx context.Context, cache redis.DriverCacheInterface, logger *slog.Logger, driverID string) {
	if cache == nil {
		return
	}
	if err := cache.InvalidateDriver(ctx, driverID); err != nil {
		logger.WarnContext(ctx, "driver cache invalidation failed", "driver_id", driverID, "error", err)
	}
}

// GenerateOTP returns a uniformly random six digit code in [100000, 999999].
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(100000+n.Int64(), 10), nil
}
