package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"ridehail/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier          = (*sql.DB)(nil)
	_ Querier          = (*sql.Tx)(nil)
	_ repository.Store = (*Store)(nil)
)

//go:embed schema.sql
var schema string

// Migrate creates the tables the repositories need if they do not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Store is a PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
}

// NewStore creates a new PostgreSQL store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Repos returns repositories bound to the connection pool.
func (s *Store) Repos() repository.Repositories {
	return newRepositories(s.db)
}

// WithinTx runs fn inside a database transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, newRepositories(tx)); err != nil {
		return err
	}

	return tx.Commit()
}

func newRepositories(q Querier) repository.Repositories {
	return repository.Repositories{
		Users:              &UserRepository{q: q},
		Riders:             &RiderRepository{q: q},
		Drivers:            &DriverRepository{q: q},
		RideRequests:       &RideRequestRepository{q: q},
		Rides:              &RideRepository{q: q},
		Payments:           &PaymentRepository{q: q},
		Wallets:            &WalletRepository{q: q},
		WalletTransactions: &WalletTransactionRepository{q: q},
		Ratings:            &RatingRepository{q: q},
	}
}

const uniqueViolation = "23505"

// isUniqueViolation recognizes duplicate-key errors from both lib/pq and pgx.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

// mapWriteError converts constraint violations into repository errors.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", repository.ErrConflict, err)
	}
	return err
}

// mapReadError converts a missing row into repository.ErrNotFound.
func mapReadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// expectOneRow returns ErrNotFound when an update touched nothing.
func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// affectedOne reports whether a conditional update touched exactly one row.
func affectedOne(result sql.Result) (bool, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
