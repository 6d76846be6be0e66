package postgres

import (
	"context"
	"database/sql"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

const rideColumns = `id, ride_request_id, rider_id, driver_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, payment_method, status, otp, fare, created_at, started_at, ended_at, cancelled_at, cancelled_by`

// Create persists a new ride.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RideRequestID,
		ride.RiderID,
		ride.DriverID,
		ride.Pickup.Lat,
		ride.Pickup.Lng,
		ride.Dropoff.Lat,
		ride.Dropoff.Lng,
		ride.PaymentMethod,
		ride.Status,
		ride.OTP,
		ride.Fare,
		ride.CreatedAt,
		nullTime(ride.StartedAt),
		nullTime(ride.EndedAt),
		nullTime(ride.CancelledAt),
		nullString(string(ride.CancelledBy)),
	)
	return mapWriteError(err)
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	return ride, mapReadError(err)
}

// GetByIDForUpdate retrieves a ride and locks its row.
func (r *RideRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1 FOR UPDATE`
	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	return ride, mapReadError(err)
}

// Transition writes status and lifecycle fields if the stored status is still from.
func (r *RideRepository) Transition(ctx context.Context, ride *domain.Ride, from domain.RideStatus) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1, started_at = $2, ended_at = $3, cancelled_at = $4, cancelled_by = $5
		WHERE id = $6 AND status = $7
	`
	result, err := r.q.ExecContext(ctx, query,
		ride.Status,
		nullTime(ride.StartedAt),
		nullTime(ride.EndedAt),
		nullTime(ride.CancelledAt),
		nullString(string(ride.CancelledBy)),
		ride.ID,
		from,
	)
	if err != nil {
		return false, err
	}
	return affectedOne(result)
}

// ListByRider returns a rider's rides, newest first.
func (r *RideRepository) ListByRider(ctx context.Context, riderID string, page repository.Page) ([]*domain.Ride, error) {
	return r.list(ctx, "rider_id", riderID, page)
}

// ListByDriver returns a driver's rides, newest first.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string, page repository.Page) ([]*domain.Ride, error) {
	return r.list(ctx, "driver_id", driverID, page)
}

// list pages through rides filtered on a fixed owner column.
func (r *RideRepository) list(ctx context.Context, column, id string, page repository.Page) ([]*domain.Ride, error) {
	page = page.Normalize()
	query := `
		SELECT ` + rideColumns + ` FROM rides
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.q.QueryContext(ctx, query, id, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	var startedAt, endedAt, cancelledAt sql.NullTime
	var cancelledBy sql.NullString

	err := row.Scan(
		&ride.ID,
		&ride.RideRequestID,
		&ride.RiderID,
		&ride.DriverID,
		&ride.Pickup.Lat,
		&ride.Pickup.Lng,
		&ride.Dropoff.Lat,
		&ride.Dropoff.Lng,
		&ride.PaymentMethod,
		&ride.Status,
		&ride.OTP,
		&ride.Fare,
		&ride.CreatedAt,
		&startedAt,
		&endedAt,
		&cancelledAt,
		&cancelledBy,
	)
	if err != nil {
		return nil, err
	}

	if startedAt.Valid {
		ride.StartedAt = startedAt.Time
	}
	if endedAt.Valid {
		ride.EndedAt = endedAt.Time
	}
	if cancelledAt.Valid {
		ride.CancelledAt = cancelledAt.Time
	}
	if cancelledBy.Valid {
		ride.CancelledBy = domain.Role(cancelledBy.String)
	}

	return &ride, nil
}
