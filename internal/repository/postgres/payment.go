package postgres

import (
	"context"
	"database/sql"
	"time"

	"ridehail/internal/domain"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

const paymentColumns = `id, ride_id, method, amount, status, created_at, confirmed_at`

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.RideID,
		payment.Method,
		payment.Amount,
		payment.Status,
		payment.CreatedAt,
		nullTime(payment.ConfirmedAt),
	)
	return mapWriteError(err)
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.q.QueryRowContext(ctx, query, id))
}

// GetByRideID retrieves the payment of a ride.
func (r *PaymentRepository) GetByRideID(ctx context.Context, rideID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ride_id = $1`
	return scanPayment(r.q.QueryRowContext(ctx, query, rideID))
}

// GetByRideIDForUpdate retrieves the payment of a ride and locks its row.
func (r *PaymentRepository) GetByRideIDForUpdate(ctx context.Context, rideID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ride_id = $1 FOR UPDATE`
	return scanPayment(r.q.QueryRowContext(ctx, query, rideID))
}

// Confirm flips a PENDING payment to CONFIRMED.
func (r *PaymentRepository) Confirm(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE payments SET status = $1, confirmed_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.q.ExecContext(ctx, query, domain.PaymentStatusConfirmed, at, id, domain.PaymentStatusPending)
	if err != nil {
		return false, err
	}
	return affectedOne(result)
}

func scanPayment(row *sql.Row) (*domain.Payment, error) {
	var payment domain.Payment
	var confirmedAt sql.NullTime
	err := row.Scan(
		&payment.ID,
		&payment.RideID,
		&payment.Method,
		&payment.Amount,
		&payment.Status,
		&payment.CreatedAt,
		&confirmedAt,
	)
	if err != nil {
		return nil, mapReadError(err)
	}
	if confirmedAt.Valid {
		payment.ConfirmedAt = confirmedAt.Time
	}
	return &payment, nil
}
