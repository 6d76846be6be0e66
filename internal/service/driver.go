package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/events"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
)

const defaultDriverLockTTL = 10 * time.Second

// DriverService handles the driver side of the ride lifecycle.
type DriverService struct {
	store      repository.Store
	locations  redis.LocationStoreInterface
	locks      redis.LockStoreInterface
	cache      redis.DriverCacheInterface
	payments   *PaymentService
	dispatcher *events.Dispatcher
	logger     *slog.Logger

	lockTTL time.Duration
	otp     func() (string, error)
	now     func() time.Time
}

// NewDriverService creates a new DriverService. locations, locks and cache may be nil.
func NewDriverService(
	store repository.Store,
	locations redis.LocationStoreInterface,
	locks redis.LockStoreInterface,
	cache redis.DriverCacheInterface,
	payments *PaymentService,
	dispatcher *events.Dispatcher,
	logger *slog.Logger,
) *DriverService {
	return &DriverService{
		store:      store,
		locations:  locations,
		locks:      locks,
		cache:      cache,
		payments:   payments,
		dispatcher: dispatcher,
		logger:     logger,
		lockTTL:    defaultDriverLockTTL,
		otp:        GenerateOTP,
		now:        time.Now,
	}
}

// AcceptRideRequest contains the parameters for accepting a ride request.
type AcceptRideRequest struct {
	Actor         domain.Principal
	RideRequestID string
}

// AcceptRide binds the acting driver to a PENDING request. Exactly one
// acceptance of a request succeeds; the others fail with
// ErrRideRequestCannotBeAccepted.
func (s *DriverService) AcceptRide(ctx context.Context, req AcceptRideRequest) (*domain.Ride, error) {
	if req.RideRequestID == "" {
		return nil, ErrInvalidRideRequestID
	}

	driver, err := driverForActor(ctx, s.store.Repos(), req.Actor)
	if err != nil {
		return nil, err
	}

	release, err := s.lockDriver(ctx, driver.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	otp, err := s.otp()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	var ride *domain.Ride
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		rideRequest, err := repos.RideRequests.GetByID(ctx, req.RideRequestID)
		if err != nil {
			return notFound(err, ErrRideRequestNotFound)
		}
		if !rideRequest.Status.CanTransition(domain.RideRequestStatusConfirmed) {
			return ErrRideRequestCannotBeAccepted
		}

		claimed, err := repos.Drivers.ClaimAvailability(ctx, driver.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrDriverBusy
		}

		confirmed, err := repos.RideRequests.UpdateStatus(ctx, rideRequest.ID, domain.RideRequestStatusPending, domain.RideRequestStatusConfirmed)
		if err != nil {
			return err
		}
		if !confirmed {
			return ErrRideRequestCannotBeAccepted
		}

		ride = &domain.Ride{
			ID:            uuid.New().String(),
			RideRequestID: rideRequest.ID,
			RiderID:       rideRequest.RiderID,
			DriverID:      driver.ID,
			Pickup:        rideRequest.Pickup,
			Dropoff:       rideRequest.Dropoff,
			PaymentMethod: rideRequest.PaymentMethod,
			Status:        domain.RideStatusConfirmed,
			OTP:           otp,
			Fare:          rideRequest.Fare,
			CreatedAt:     s.now(),
		}
		if err := repos.Rides.Create(ctx, ride); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrRideRequestCannotBeAccepted
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateDriver(ctx, s.cache, s.logger, driver.ID)
	s.dispatcher.Emit(ctx, events.RideAccepted, map[string]any{
		"ride_id":         ride.ID,
		"ride_request_id": ride.RideRequestID,
		"rider_id":        ride.RiderID,
		"driver_id":       ride.DriverID,
	})

	return ride, nil
}

// lockDriver serializes acceptances by one driver across instances. When the
// lock store is unreachable the conditional availability update still guards
// the driver, so the failure is only logged.
func (s *DriverService) lockDriver(ctx context.Context, driverID string) (func(), error) {
	noop := func() {}
	if s.locks == nil {
		return noop, nil
	}

	token, err := s.locks.AcquireDriverLock(ctx, driverID, s.lockTTL)
	if err != nil {
		s.logger.WarnContext(ctx, "driver lock unavailable", "driver_id", driverID, "error", err)
		return noop, nil
	}
	if token == "" {
		return nil, ErrDriverBusy
	}

	return func() {
		if err := s.locks.ReleaseDriverLock(context.WithoutCancel(ctx), driverID, token); err != nil {
			s.logger.WarnContext(ctx, "driver lock release failed", "driver_id", driverID, "error", err)
		}
	}, nil
}

// StartRideRequest contains the parameters for starting a ride.
type StartRideRequest struct {
	Actor  domain.Principal
	RideID string
	OTP    string
}

// StartRideResponse contains the started ride and its pending payment.
type StartRideResponse struct {
	Ride    *domain.Ride
	Payment *domain.Payment
}

// StartRide moves a CONFIRMED ride to ONGOING once the rider's OTP is
// verified, and opens a PENDING payment for the fare. On any failure the
// ride is unchanged and no payment exists.
func (s *DriverService) StartRide(ctx context.Context, req StartRideRequest) (*StartRideResponse, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}

	driver, err := driverForActor(ctx, s.store.Repos(), req.Actor)
	if err != nil {
		return nil, err
	}

	var resp StartRideResponse
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ride, err := repos.Rides.GetByIDForUpdate(ctx, req.RideID)
		if err != nil {
			return notFound(err, ErrRideNotFound)
		}

		if ride.Status != domain.RideStatusConfirmed {
			return ErrRideStatusNotConfirmed
		}
		if ride.DriverID != driver.ID {
			return ErrDriverCouldNotAccept
		}
		if subtle.ConstantTimeCompare([]byte(req.OTP), []byte(ride.OTP)) != 1 {
			return ErrOtpMismatch
		}

		now := s.now()
		ride.Status = domain.RideStatusOngoing
		ride.StartedAt = now

		ok, err := repos.Rides.Transition(ctx, ride, domain.RideStatusConfirmed)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRideStatusNotConfirmed
		}

		payment := &domain.Payment{
			ID:        uuid.New().String(),
			RideID:    ride.ID,
			Method:    ride.PaymentMethod,
			Amount:    ride.Fare,
			Status:    domain.PaymentStatusPending,
			CreatedAt: now,
		}
		if err := repos.Payments.Create(ctx, payment); err != nil {
			return err
		}

		resp.Ride = ride
		resp.Payment = payment
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Emit(ctx, events.RideStarted, map[string]any{
		"ride_id":   resp.Ride.ID,
		"rider_id":  resp.Ride.RiderID,
		"driver_id": resp.Ride.DriverID,
	})

	return &resp, nil
}

// EndRideRequest contains the parameters for ending a ride.
type EndRideRequest struct {
	Actor  domain.Principal
	RideID string
}

// EndRideResponse contains the ended ride and the state of its settlement.
type EndRideResponse struct {
	Ride         *domain.Ride
	Payment      *domain.Payment
	Transactions []*domain.WalletTransaction
}

// EndRide moves an ONGOING ride to ENDED, frees the driver and settles the
// payment. When settlement fails the ride stays ENDED, the payment stays
// PENDING, and the response is returned along with an error wrapping
// ErrSettlementFailed.
func (s *DriverService) EndRide(ctx context.Context, req EndRideRequest) (*EndRideResponse, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}

	driver, err := driverForActor(ctx, s.store.Repos(), req.Actor)
	if err != nil {
		return nil, err
	}

	var ended *domain.Ride
	err = s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ride, err := repos.Rides.GetByIDForUpdate(ctx, req.RideID)
		if err != nil {
			return notFound(err, ErrRideNotFound)
		}

		if ride.Status != domain.RideStatusOngoing {
			return ErrRideStatusNotConfirmed
		}
		if ride.DriverID != driver.ID {
			return ErrDriverCouldNotAccept
		}

		ride.Status = domain.RideStatusEnded
		ride.EndedAt = s.now()

		ok, err := repos.Rides.Transition(ctx, ride, domain.RideStatusOngoing)
		if err != nil {
			return err
		}
		if !ok {
			return ErrRideStatusNotConfirmed
		}

		if err := repos.Drivers.SetAvailable(ctx, driver.ID, true); err != nil {
			return err
		}

		ended = ride
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateDriver(ctx, s.cache, s.logger, driver.ID)
	s.dispatcher.Emit(ctx, events.RideEnded, map[string]any{
		"ride_id":   ended.ID,
		"rider_id":  ended.RiderID,
		"driver_id": ended.DriverID,
		"fare":      ended.Fare.StringFixed(2),
	})

	resp := &EndRideResponse{Ride: ended}

	settlement, err := s.payments.SettleRide(ctx, ended.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "ride settlement failed", "ride_id", ended.ID, "error", err)
		if payment, lookupErr := s.store.Repos().Payments.GetByRideID(ctx, ended.ID); lookupErr == nil {
			resp.Payment = payment
		}
		return resp, fmt.Errorf("%w: ride %s: %w", ErrSettlementFailed, ended.ID, err)
	}

	resp.Payment = settlement.Payment
	resp.Transactions = settlement.Transactions
	return resp, nil
}

// DriverCancelRideRequest contains the parameters for a driver cancelling a ride.
type DriverCancelRideRequest struct {
	Actor  domain.Principal
	RideID string
}

// CancelRide cancels a CONFIRMED ride assigned to the acting driver.
func (s *DriverService) CancelRide(ctx context.Context, req DriverCancelRideRequest) (*domain.Ride, error) {
	driver, err := driverForActor(ctx, s.store.Repos(), req.Actor)
	if err != nil {
		return nil, err
	}

	ride, err := cancelRide(ctx, s.store, req.RideID, domain.RoleDriver, s.now(), func(ride *domain.Ride) bool {
		return ride.DriverID == driver.ID
	})
	if err != nil {
		return nil, err
	}

	invalidateDriver(ctx, s.cache, s.logger, driver.ID)
	s.dispatcher.Emit(ctx, events.RideCancelled, map[string]any{
		"ride_id":      ride.ID,
		"rider_id":     ride.RiderID,
		"cancelled_by": domain.RoleDriver,
	})

	return ride, nil
}

// UpdateLocationRequest contains the parameters for updating driver location.
type UpdateLocationRequest struct {
	Actor    domain.Principal
	Location domain.Point
}

// UpdateLocation records the driver's position in the database and the GEO index.
func (s *DriverService) UpdateLocation(ctx context.Context, req UpdateLocationRequest) (*domain.Driver, error) {
	if !req.Location.Valid() {
		return nil, ErrInvalidLocation
	}

	repos := s.store.Repos()
	driver, err := driverForActor(ctx, repos, req.Actor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := repos.Drivers.UpdateLocation(ctx, driver.ID, req.Location, now); err != nil {
		return nil, err
	}
	driver.Location = req.Location
	driver.UpdatedAt = now

	if s.locations != nil {
		if err := s.locations.UpdateLocation(ctx, driver.ID, req.Location); err != nil {
			return nil, err
		}
	}
	invalidateDriver(ctx, s.cache, s.logger, driver.ID)

	return driver, nil
}

// GetRide returns a ride assigned to the acting driver.
func (s *DriverService) GetRide(ctx context.Context, actor domain.Principal, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	repos := s.store.Repos()
	driver, err := driverForActor(ctx, repos, actor)
	if err != nil {
		return nil, err
	}

	ride, err := repos.Rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, notFound(err, ErrRideNotFound)
	}
	if ride.DriverID != driver.ID {
		return nil, ErrDriverCouldNotAccept
	}
	return ride, nil
}

// ListRides returns the acting driver's rides, newest first.
func (s *DriverService) ListRides(ctx context.Context, actor domain.Principal, page repository.Page) ([]*domain.Ride, error) {
	repos := s.store.Repos()
	driver, err := driverForActor(ctx, repos, actor)
	if err != nil {
		return nil, err
	}
	return repos.Rides.ListByDriver(ctx, driver.ID, page)
}
