package repository

import "context"

// Repositories groups the repositories that share one connection or transaction.
type Repositories struct {
	Users              UserRepository
	Riders             RiderRepository
	Drivers            DriverRepository
	RideRequests       RideRequestRepository
	Rides              RideRepository
	Payments           PaymentRepository
	Wallets            WalletRepository
	WalletTransactions WalletTransactionRepository
	Ratings            RatingRepository
}

// Store hands out repositories and runs units of work.
type Store interface {
	// Repos returns repositories bound to no transaction.
	Repos() Repositories

	// WithinTx runs fn with repositories bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
