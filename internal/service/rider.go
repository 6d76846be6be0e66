package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/events"
	"ridehail/internal/redis"
	"ridehail/internal/repository"
	"ridehail/internal/strategy"
)

// SurgeEstimator returns the price multiplier for a pickup point.
type SurgeEstimator interface {
	Multiplier(ctx context.Context, p domain.Point) float64
}

// Ensure DemandEstimator implements SurgeEstimator.
var _ SurgeEstimator = (*strategy.DemandEstimator)(nil)

// RiderService handles rider operations.
type RiderService struct {
	store      repository.Store
	fares      *strategy.FareRegistry
	matching   *strategy.MatchingRegistry
	surge      SurgeEstimator
	cache      redis.DriverCacheInterface
	dispatcher *events.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewRiderService creates a new RiderService. surge and cache may be nil.
func NewRiderService(
	store repository.Store,
	fares *strategy.FareRegistry,
	matching *strategy.MatchingRegistry,
	surge SurgeEstimator,
	cache redis.DriverCacheInterface,
	dispatcher *events.Dispatcher,
	logger *slog.Logger,
) *RiderService {
	return &RiderService{
		store:      store,
		fares:      fares,
		matching:   matching,
		surge:      surge,
		cache:      cache,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// RequestRideRequest contains the parameters for requesting a ride.
type RequestRideRequest struct {
	Actor         domain.Principal
	Pickup        domain.Point
	Dropoff       domain.Point
	PaymentMethod domain.PaymentMethod
}

// RequestRideResponse contains the stored request and the drivers proposed for it.
type RequestRideResponse struct {
	RideRequest    *domain.RideRequest
	FarePolicy     strategy.FarePolicy
	MatchingPolicy strategy.MatchingPolicy
	Candidates     []*domain.Driver
}

// RequestRide prices and stores a PENDING ride request, then proposes
// drivers. Matching failures are logged and leave the request in place.
func (s *RiderService) RequestRide(ctx context.Context, req RequestRideRequest) (*RequestRideResponse, error) {
	if err := validateRideRequest(req); err != nil {
		return nil, err
	}

	repos := s.store.Repos()
	rider, err := riderForActor(ctx, repos, req.Actor)
	if err != nil {
		return nil, err
	}

	surgeMultiplier := 1.0
	if s.surge != nil {
		surgeMultiplier = s.surge.Multiplier(ctx, req.Pickup)
	}

	rideRequest := &domain.RideRequest{
		ID:              uuid.New().String(),
		RiderID:         rider.ID,
		Pickup:          req.Pickup,
		Dropoff:         req.Dropoff,
		PaymentMethod:   req.PaymentMethod,
		Status:          domain.RideRequestStatusPending,
		SurgeMultiplier: surgeMultiplier,
		RequestedAt:     s.now(),
	}

	quote, err := s.fares.Select(rideRequest).CalculateFare(ctx, rideRequest)
	if err != nil {
		return nil, err
	}
	rideRequest.Fare = quote.Fare
	rideRequest.DistanceKm = quote.DistanceKm

	if err := repos.RideRequests.Create(ctx, rideRequest); err != nil {
		return nil, err
	}

	resp := &RequestRideResponse{
		RideRequest:    rideRequest,
		FarePolicy:     quote.Policy,
		MatchingPolicy: s.matching.Policy(rider),
	}

	candidates, err := s.matching.Select(rider).FindMatchingDrivers(ctx, rideRequest)
	if err != nil {
		s.logger.WarnContext(ctx, "driver matching failed", "ride_request_id", rideRequest.ID, "error", err)
	} else {
		resp.Candidates = candidates
	}

	candidateIDs := make([]string, 0, len(resp.Candidates))
	for _, d := range resp.Candidates {
		candidateIDs = append(candidateIDs, d.ID)
	}
	s.dispatcher.Emit(ctx, events.RideRequestSubmitted, map[string]any{
		"ride_request_id": rideRequest.ID,
		"rider_id":        rider.ID,
		"fare":            rideRequest.Fare.StringFixed(2),
		"surge":           rideRequest.SurgeMultiplier,
		"candidates":      candidateIDs,
	})

	return resp, nil
}

func validateRideRequest(req RequestRideRequest) error {
	if req.Actor.UserID == "" {
		return ErrInvalidActor
	}
	if !req.Pickup.Valid() {
		return ErrInvalidPickupLocation
	}
	if !req.Dropoff.Valid() {
		return ErrInvalidDropoffLocation
	}
	if !req.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	return nil
}

// CancelRideRequestRequest contains the parameters for withdrawing a request.
type CancelRideRequestRequest struct {
	Actor         domain.Principal
	RideRequestID string
}

// CancelRideRequest withdraws a PENDING request owned by the acting rider.
func (s *RiderService) CancelRideRequest(ctx context.Context, req CancelRideRequestRequest) (*domain.RideRequest, error) {
	if req.RideRequestID == "" {
		return nil, ErrInvalidRideRequestID
	}

	repos := s.store.Repos()
	rider, err := riderForActor(ctx, repos, req.Actor)
	if err != nil {
		return nil, err
	}

	rideRequest, err := repos.RideRequests.GetByID(ctx, req.RideRequestID)
	if err != nil {
		return nil, notFound(err, ErrRideRequestNotFound)
	}
	if rideRequest.RiderID != rider.ID {
		return nil, ErrNotRideRider
	}

	ok, err := repos.RideRequests.UpdateStatus(ctx, rideRequest.ID, domain.RideRequestStatusPending, domain.RideRequestStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRideRequestCannotBeCancelled
	}
	rideRequest.Status = domain.RideRequestStatusCancelled

	s.dispatcher.Emit(ctx, events.RideRequestCancelled, map[string]any{
		"ride_request_id": rideRequest.ID,
		"rider_id":        rider.ID,
	})

	return rideRequest, nil
}

// RiderCancelRideRequest contains the parameters for a rider cancelling a ride.
type RiderCancelRideRequest struct {
	Actor  domain.Principal
	RideID string
}

// CancelRide cancels a CONFIRMED ride owned by the acting rider.
func (s *RiderService) CancelRide(ctx context.Context, req RiderCancelRideRequest) (*domain.Ride, error) {
	rider, err := riderForActor(ctx, s.store.Repos(), req.Actor)
	if err != nil {
		return nil, err
	}

	ride, err := cancelRide(ctx, s.store, req.RideID, domain.RoleRider, s.now(), func(ride *domain.Ride) bool {
		return ride.RiderID == rider.ID
	})
	if err != nil {
		return nil, err
	}

	invalidateDriver(ctx, s.cache, s.logger, ride.DriverID)
	s.dispatcher.Emit(ctx, events.RideCancelled, map[string]any{
		"ride_id":      ride.ID,
		"driver_id":    ride.DriverID,
		"cancelled_by": domain.RoleRider,
	})

	return ride, nil
}

// GetRide returns a ride of the acting rider.
func (s *RiderService) GetRide(ctx context.Context, actor domain.Principal, rideID string) (*domain.Ride, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	repos := s.store.Repos()
	rider, err := riderForActor(ctx, repos, actor)
	if err != nil {
		return nil, err
	}

	ride, err := repos.Rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, notFound(err, ErrRideNotFound)
	}
	if ride.RiderID != rider.ID {
		return nil, ErrNotRideRider
	}
	return ride, nil
}

// ListRides returns the acting rider's rides, newest first.
func (s *RiderService) ListRides(ctx context.Context, actor domain.Principal, page repository.Page) ([]*domain.Ride, error) {
	repos := s.store.Repos()
	rider, err := riderForActor(ctx, repos, actor)
	if err != nil {
		return nil, err
	}
	return repos.Rides.ListByRider(ctx, rider.ID, page)
}

// ListRideRequests returns the acting rider's requests, newest first.
func (s *RiderService) ListRideRequests(ctx context.Context, actor domain.Principal, page repository.Page) ([]*domain.RideRequest, error) {
	repos := s.store.Repos()
	rider, err := riderForActor(ctx, repos, actor)
	if err != nil {
		return nil, err
	}
	return repos.RideRequests.ListByRider(ctx, rider.ID, page)
}
