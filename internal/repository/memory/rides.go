package memory

import (
	"context"
	"sort"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

type rideRequestRepository struct {
	v *view
}

func (r *rideRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.requests[req.ID]; ok {
			return repository.ErrConflict
		}
		stored := *req
		if stored.SurgeMultiplier < 1.0 {
			stored.SurgeMultiplier = 1.0
		}
		st.requests[req.ID] = stored
		st.track(req.ID)
		return nil
	})
}

func (r *rideRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	var out *domain.RideRequest
	err := r.v.do(func(st *state) error {
		req, ok := st.requests[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &req
		return nil
	})
	return out, err
}

func (r *rideRequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RideRequestStatus) (bool, error) {
	updated := false
	err := r.v.do(func(st *state) error {
		req, ok := st.requests[id]
		if !ok || req.Status != from {
			return nil
		}
		req.Status = to
		st.requests[id] = req
		updated = true
		return nil
	})
	return updated, err
}

func (r *rideRequestRepository) ListByRider(ctx context.Context, riderID string, page repository.Page) ([]*domain.RideRequest, error) {
	var out []*domain.RideRequest
	err := r.v.do(func(st *state) error {
		for _, req := range st.requests {
			if req.RiderID == riderID {
				out = append(out, &req)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			return st.seq[out[i].ID] > st.seq[out[j].ID]
		})
		return nil
	})
	return window(out, page), err
}

func (r *rideRequestRepository) CountPendingNear(ctx context.Context, p domain.Point, radiusKm float64) (int, error) {
	count := 0
	err := r.v.do(func(st *state) error {
		for _, req := range st.requests {
			if req.Status == domain.RideRequestStatusPending && p.HaversineKm(req.Pickup) <= radiusKm {
				count++
			}
		}
		return nil
	})
	return count, err
}

type rideRepository struct {
	v *view
}

func (r *rideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.rides[ride.ID]; ok {
			return repository.ErrConflict
		}
		for _, existing := range st.rides {
			if existing.RideRequestID == ride.RideRequestID {
				return repository.ErrConflict
			}
		}
		st.rides[ride.ID] = *ride
		st.track(ride.ID)
		return nil
	})
}

func (r *rideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	var out *domain.Ride
	err := r.v.do(func(st *state) error {
		ride, ok := st.rides[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &ride
		return nil
	})
	return out, err
}

// GetByIDForUpdate needs no extra locking: transactions are serialized.
func (r *rideRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	return r.GetByID(ctx, id)
}

func (r *rideRepository) Transition(ctx context.Context, ride *domain.Ride, from domain.RideStatus) (bool, error) {
	updated := false
	err := r.v.do(func(st *state) error {
		stored, ok := st.rides[ride.ID]
		if !ok || stored.Status != from {
			return nil
		}
		stored.Status = ride.Status
		stored.StartedAt = ride.StartedAt
		stored.EndedAt = ride.EndedAt
		stored.CancelledAt = ride.CancelledAt
		stored.CancelledBy = ride.CancelledBy
		st.rides[ride.ID] = stored
		updated = true
		return nil
	})
	return updated, err
}

func (r *rideRepository) ListByRider(ctx context.Context, riderID string, page repository.Page) ([]*domain.Ride, error) {
	return r.list(func(ride domain.Ride) bool { return ride.RiderID == riderID }, page)
}

func (r *rideRepository) ListByDriver(ctx context.Context, driverID string, page repository.Page) ([]*domain.Ride, error) {
	return r.list(func(ride domain.Ride) bool { return ride.DriverID == driverID }, page)
}

func (r *rideRepository) list(match func(domain.Ride) bool, page repository.Page) ([]*domain.Ride, error) {
	var out []*domain.Ride
	err := r.v.do(func(st *state) error {
		for _, ride := range st.rides {
			if match(ride) {
				out = append(out, &ride)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			return st.seq[out[i].ID] > st.seq[out[j].ID]
		})
		return nil
	})
	return window(out, page), err
}

type ratingRepository struct {
	v *view
}

func (r *ratingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	return r.v.do(func(st *state) error {
		for _, existing := range st.ratings {
			if existing.RideID == rating.RideID && existing.RaterRole == rating.RaterRole {
				return repository.ErrConflict
			}
		}
		st.ratings = append(st.ratings, *rating)
		return nil
	})
}

func (r *ratingRepository) Average(ctx context.Context, rateeID string) (float64, int, error) {
	sum, count := 0, 0
	_ = r.v.do(func(st *state) error {
		for _, rating := range st.ratings {
			if rating.RateeID == rateeID {
				sum += rating.Score
				count++
			}
		}
		return nil
	})
	if count == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(count), count, nil
}
