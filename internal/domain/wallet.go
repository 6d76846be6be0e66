package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet holds a user's balance.
type Wallet struct {
	ID        string
	UserID    string
	Balance   decimal.Decimal
	UpdatedAt time.Time
}

// TransactionType is the direction of a wallet entry.
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

// TransactionMethod is the origin of a wallet entry.
type TransactionMethod string

const (
	TransactionMethodBanking TransactionMethod = "BANKING"
	TransactionMethodRide    TransactionMethod = "RIDE"
)

// WalletTransaction is an append-only ledger entry. Amount is always positive;
// Type carries the sign.
type WalletTransaction struct {
	ID            string
	WalletID      string
	Amount        decimal.Decimal
	Type          TransactionType
	Method        TransactionMethod
	RideID        string
	TransactionID string
	BalanceAfter  decimal.Decimal
	CreatedAt     time.Time
}
