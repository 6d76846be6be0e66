package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
)

// WalletRepository defines the persistence operations for wallets.
type WalletRepository interface {
	// Create persists a new wallet. Returns ErrConflict if the user has one.
	Create(ctx context.Context, wallet *domain.Wallet) error

	// GetByUserID retrieves the wallet of a user.
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)

	// GetByUserIDForUpdate retrieves the wallet of a user and locks it.
	GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Wallet, error)

	// UpdateBalance overwrites the balance of a wallet.
	UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, at time.Time) error
}

// WalletTransactionRepository defines the persistence operations for ledger entries.
// Entries are never updated or deleted.
type WalletTransactionRepository interface {
	// Create appends an entry. Returns ErrConflict on a reused transaction ID.
	Create(ctx context.Context, txn *domain.WalletTransaction) error

	// ListByWallet returns the entries of a wallet, newest first.
	ListByWallet(ctx context.Context, walletID string, page Page) ([]*domain.WalletTransaction, error)

	// ListByRide returns the entries written for a ride.
	ListByRide(ctx context.Context, rideID string) ([]*domain.WalletTransaction, error)
}
