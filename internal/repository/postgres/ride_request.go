package postgres

import (
	"context"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RideRequestRepository is a PostgreSQL implementation of repository.RideRequestRepository.
type RideRequestRepository struct {
	q Querier
}

const rideRequestColumns = `id, rider_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, payment_method, status, fare, distance_km, surge_multiplier, requested_at`

// Create persists a new ride request.
func (r *RideRequestRepository) Create(ctx context.Context, req *domain.RideRequest) error {
	query := `
		INSERT INTO ride_requests (` + rideRequestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	// Default surge to 1.0 if not set
	surgeMultiplier := req.SurgeMultiplier
	if surgeMultiplier < 1.0 {
		surgeMultiplier = 1.0
	}

	_, err := r.q.ExecContext(ctx, query,
		req.ID,
		req.RiderID,
		req.Pickup.Lat,
		req.Pickup.Lng,
		req.Dropoff.Lat,
		req.Dropoff.Lng,
		req.PaymentMethod,
		req.Status,
		req.Fare,
		req.DistanceKm,
		surgeMultiplier,
		req.RequestedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a ride request by ID.
func (r *RideRequestRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	query := `SELECT ` + rideRequestColumns + ` FROM ride_requests WHERE id = $1`
	req, err := scanRideRequest(r.q.QueryRowContext(ctx, query, id))
	return req, mapReadError(err)
}

// UpdateStatus moves a request from one status to another.
func (r *RideRequestRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RideRequestStatus) (bool, error) {
	query := `UPDATE ride_requests SET status = $1 WHERE id = $2 AND status = $3`
	result, err := r.q.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return false, err
	}
	return affectedOne(result)
}

// ListByRider returns a rider's requests, newest first.
func (r *RideRequestRepository) ListByRider(ctx context.Context, riderID string, page repository.Page) ([]*domain.RideRequest, error) {
	page = page.Normalize()
	query := `
		SELECT ` + rideRequestColumns + ` FROM ride_requests
		WHERE rider_id = $1
		ORDER BY requested_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.q.QueryContext(ctx, query, riderID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*domain.RideRequest
	for rows.Next() {
		req, err := scanRideRequest(rows)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

// CountPendingNear counts PENDING requests whose pickup lies within radiusKm of p.
func (r *RideRequestRepository) CountPendingNear(ctx context.Context, p domain.Point, radiusKm float64) (int, error) {
	query := `
		SELECT count(*) FROM ride_requests
		WHERE status = 'PENDING'
		AND 6371 * 2 * asin(sqrt(
			power(sin(radians(pickup_lat - $1) / 2), 2) +
			cos(radians($1)) * cos(radians(pickup_lat)) * power(sin(radians(pickup_lng - $2) / 2), 2)
		)) <= $3
	`
	var count int
	if err := r.q.QueryRowContext(ctx, query, p.Lat, p.Lng, radiusKm).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanRideRequest(row rowScanner) (*domain.RideRequest, error) {
	var req domain.RideRequest
	err := row.Scan(
		&req.ID,
		&req.RiderID,
		&req.Pickup.Lat,
		&req.Pickup.Lng,
		&req.Dropoff.Lat,
		&req.Dropoff.Lng,
		&req.PaymentMethod,
		&req.Status,
		&req.Fare,
		&req.DistanceKm,
		&req.SurgeMultiplier,
		&req.RequestedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
