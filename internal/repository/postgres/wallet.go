package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of repository.WalletRepository.
type WalletRepository struct {
	q Querier
}

// Create persists a new wallet.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	query := `INSERT INTO wallets (id, user_id, balance, updated_at) VALUES ($1, $2, $3, $4)`
	_, err := r.q.ExecContext(ctx, query, wallet.ID, wallet.UserID, wallet.Balance, wallet.UpdatedAt)
	return mapWriteError(err)
}

// GetByUserID retrieves the wallet of a user.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `SELECT id, user_id, balance, updated_at FROM wallets WHERE user_id = $1`
	return scanWallet(r.q.QueryRowContext(ctx, query, userID))
}

// GetByUserIDForUpdate retrieves the wallet of a user and locks its row.
func (r *WalletRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `SELECT id, user_id, balance, updated_at FROM wallets WHERE user_id = $1 FOR UPDATE`
	return scanWallet(r.q.QueryRowContext(ctx, query, userID))
}

// UpdateBalance overwrites the balance of a wallet.
func (r *WalletRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, at time.Time) error {
	result, err := r.q.ExecContext(ctx, `UPDATE wallets SET balance = $1, updated_at = $2 WHERE id = $3`, balance, at, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func scanWallet(row *sql.Row) (*domain.Wallet, error) {
	var wallet domain.Wallet
	if err := row.Scan(&wallet.ID, &wallet.UserID, &wallet.Balance, &wallet.UpdatedAt); err != nil {
		return nil, mapReadError(err)
	}
	return &wallet, nil
}

// WalletTransactionRepository is a PostgreSQL implementation of
// repository.WalletTransactionRepository.
type WalletTransactionRepository struct {
	q Querier
}

const walletTransactionColumns = `id, wallet_id, amount, type, method, ride_id, transaction_id, balance_after, created_at`

// Create appends a ledger entry.
func (r *WalletTransactionRepository) Create(ctx context.Context, txn *domain.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (` + walletTransactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.q.ExecContext(ctx, query,
		txn.ID,
		txn.WalletID,
		txn.Amount,
		txn.Type,
		txn.Method,
		nullString(txn.RideID),
		txn.TransactionID,
		txn.BalanceAfter,
		txn.CreatedAt,
	)
	return mapWriteError(err)
}

// ListByWallet returns the entries of a wallet, newest first.
func (r *WalletTransactionRepository) ListByWallet(ctx context.Context, walletID string, page repository.Page) ([]*domain.WalletTransaction, error) {
	page = page.Normalize()
	query := `
		SELECT ` + walletTransactionColumns + ` FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.query(ctx, query, walletID, page.Limit, page.Offset)
}

// ListByRide returns the entries written for a ride.
func (r *WalletTransactionRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.WalletTransaction, error) {
	query := `SELECT ` + walletTransactionColumns + ` FROM wallet_transactions WHERE ride_id = $1 ORDER BY created_at`
	return r.query(ctx, query, rideID)
}

func (r *WalletTransactionRepository) query(ctx context.Context, query string, args ...any) ([]*domain.WalletTransaction, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.WalletTransaction
	for rows.Next() {
		var txn domain.WalletTransaction
		var rideID sql.NullString
		if err := rows.Scan(
			&txn.ID,
			&txn.WalletID,
			&txn.Amount,
			&txn.Type,
			&txn.Method,
			&rideID,
			&txn.TransactionID,
			&txn.BalanceAfter,
			&txn.CreatedAt,
		); err != nil {
			return nil, err
		}
		if rideID.Valid {
			txn.RideID = rideID.String
		}
		txns = append(txns, &txn)
	}
	return txns, rows.Err()
}
