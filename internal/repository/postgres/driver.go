package postgres

import (
	"context"
	"time"

	"github.com/lib/pq"

	"ridehail/internal/domain"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

const driverColumns = `id, user_id, rating, available, lat, lng, vehicle_id, updated_at`

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (id, user_id, rating, available, lat, lng, vehicle_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.UserID,
		driver.Rating,
		driver.Available,
		driver.Location.Lat,
		driver.Location.Lng,
		driver.VehicleID,
		driver.UpdatedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	driver, err := scanDriver(r.q.QueryRowContext(ctx, query, id))
	return driver, mapReadError(err)
}

// GetByUserID retrieves the driver profile of a user.
func (r *DriverRepository) GetByUserID(ctx context.Context, userID string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE user_id = $1`
	driver, err := scanDriver(r.q.QueryRowContext(ctx, query, userID))
	return driver, mapReadError(err)
}

// GetByIDs retrieves the drivers that exist among ids.
func (r *DriverRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Driver, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = ANY($1)`
	return r.queryDrivers(ctx, query, pq.Array(ids))
}

// ListAvailableNear returns available drivers within radiusKm of p, nearest first.
func (r *DriverRepository) ListAvailableNear(ctx context.Context, p domain.Point, radiusKm float64, limit int) ([]*domain.Driver, error) {
	query := `
		SELECT ` + driverColumns + ` FROM (
			SELECT *, 6371 * 2 * asin(sqrt(
				power(sin(radians(lat - $1) / 2), 2) +
				cos(radians($1)) * cos(radians(lat)) * power(sin(radians(lng - $2) / 2), 2)
			)) AS distance_km
			FROM drivers
			WHERE available
		) d
		WHERE distance_km <= $3
		ORDER BY distance_km ASC
		LIMIT $4
	`
	return r.queryDrivers(ctx, query, p.Lat, p.Lng, radiusKm, limit)
}

// ClaimAvailability flips available from true to false.
func (r *DriverRepository) ClaimAvailability(ctx context.Context, id string) (bool, error) {
	query := `UPDATE drivers SET available = false, updated_at = now() WHERE id = $1 AND available`
	result, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	return affectedOne(result)
}

// SetAvailable sets the availability flag.
func (r *DriverRepository) SetAvailable(ctx context.Context, id string, available bool) error {
	query := `UPDATE drivers SET available = $1, updated_at = now() WHERE id = $2`
	result, err := r.q.ExecContext(ctx, query, available, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// UpdateLocation stores the last known position of a driver.
func (r *DriverRepository) UpdateLocation(ctx context.Context, id string, p domain.Point, at time.Time) error {
	query := `UPDATE drivers SET lat = $1, lng = $2, updated_at = $3 WHERE id = $4`
	result, err := r.q.ExecContext(ctx, query, p.Lat, p.Lng, at, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// UpdateRating stores a recomputed average rating.
func (r *DriverRepository) UpdateRating(ctx context.Context, id string, rating float64) error {
	result, err := r.q.ExecContext(ctx, `UPDATE drivers SET rating = $1 WHERE id = $2`, rating, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func (r *DriverRepository) queryDrivers(ctx context.Context, query string, args ...any) ([]*domain.Driver, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		driver, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, driver)
	}
	return drivers, rows.Err()
}

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var driver domain.Driver
	err := row.Scan(
		&driver.ID,
		&driver.UserID,
		&driver.Rating,
		&driver.Available,
		&driver.Location.Lat,
		&driver.Location.Lng,
		&driver.VehicleID,
		&driver.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &driver, nil
}
