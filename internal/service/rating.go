package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RatingService records ratings between the parties of ended rides and keeps
// the profile averages current.
type RatingService struct {
	store repository.Store
	now   func() time.Time
}

// NewRatingService creates a new RatingService.
func NewRatingService(store repository.Store) *RatingService {
	return &RatingService{store: store, now: time.Now}
}

// RateRequest contains the parameters for rating the other party of a ride.
type RateRequest struct {
	Actor  domain.Principal
	RideID string
	Score  int
}

// RateDriver records the acting rider's score for the driver of an ended ride.
func (s *RatingService) RateDriver(ctx context.Context, req RateRequest) (*domain.Rating, error) {
	return s.rate(ctx, req, domain.RoleRider)
}

// RateRider records the acting driver's score for the rider of an ended ride.
func (s *RatingService) RateRider(ctx context.Context, req RateRequest) (*domain.Rating, error) {
	return s.rate(ctx, req, domain.RoleDriver)
}

func (s *RatingService) rate(ctx context.Context, req RateRequest, raterRole domain.Role) (*domain.Rating, error) {
	if req.RideID == "" {
		return nil, ErrInvalidRideID
	}
	if req.Score < 1 || req.Score > 5 {
		return nil, ErrInvalidScore
	}

	var rating *domain.Rating
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ride, err := repos.Rides.GetByID(ctx, req.RideID)
		if err != nil {
			return notFound(err, ErrRideNotFound)
		}

		role, err := participantRole(ctx, repos, req.Actor, ride)
		if err != nil {
			return err
		}
		if role != raterRole {
			return ErrNotRideParticipant
		}
		if ride.Status != domain.RideStatusEnded {
			return ErrRideNotEnded
		}

		rateeID := ride.DriverID
		if raterRole == domain.RoleDriver {
			rateeID = ride.RiderID
		}

		rating = &domain.Rating{
			ID:        uuid.New().String(),
			RideID:    ride.ID,
			RaterRole: raterRole,
			RateeID:   rateeID,
			Score:     req.Score,
			CreatedAt: s.now(),
		}
		if err := repos.Ratings.Create(ctx, rating); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return ErrAlreadyRated
			}
			return err
		}

		avg, _, err := repos.Ratings.Average(ctx, rateeID)
		if err != nil {
			return err
		}
		if raterRole == domain.RoleDriver {
			return repos.Riders.UpdateRating(ctx, rateeID, avg)
		}
		return repos.Drivers.UpdateRating(ctx, rateeID, avg)
	})
	if err != nil {
		return nil, err
	}

	return rating, nil
}
