// Package ledger moves money in and out of wallets. Every balance change is
// paired with exactly one append-only WalletTransaction, and both are written
// through the repositories of the caller's unit of work.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

var (
	// ErrInvalidAmount is returned when an amount is zero or negative.
	ErrInvalidAmount = fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)

	// ErrWalletNotFound is returned when the user has no wallet.
	ErrWalletNotFound = fmt.Errorf("%w: wallet", repository.ErrNotFound)

	// ErrInsufficientFunds is returned when a debit would overdraw the wallet.
	ErrInsufficientFunds = fmt.Errorf("%w: wallet balance too low", domain.ErrInsufficientFunds)
)

// Entry describes one balance change.
type Entry struct {
	UserID        string
	Amount        decimal.Decimal
	Method        domain.TransactionMethod
	RideID        string
	TransactionID string // generated when empty

	// AllowOverdraft lets a debit take the balance below zero.
	AllowOverdraft bool
}

// Ledger applies credits and debits.
type Ledger struct {
	now func() time.Time
}

// New creates a Ledger.
func New() *Ledger {
	return &Ledger{now: time.Now}
}

// Credit adds entry.Amount to the user's wallet.
func (l *Ledger) Credit(ctx context.Context, repos repository.Repositories, entry Entry) (*domain.WalletTransaction, error) {
	return l.apply(ctx, repos, entry, domain.TransactionTypeCredit)
}

// Debit removes entry.Amount from the user's wallet.
func (l *Ledger) Debit(ctx context.Context, repos repository.Repositories, entry Entry) (*domain.WalletTransaction, error) {
	return l.apply(ctx, repos, entry, domain.TransactionTypeDebit)
}

func (l *Ledger) apply(ctx context.Context, repos repository.Repositories, entry Entry, txnType domain.TransactionType) (*domain.WalletTransaction, error) {
	if !entry.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	wallet, err := repos.Wallets.GetByUserIDForUpdate(ctx, entry.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s", ErrWalletNotFound, entry.UserID)
		}
		return nil, err
	}

	balance := wallet.Balance
	if txnType == domain.TransactionTypeCredit {
		balance = balance.Add(entry.Amount)
	} else {
		balance = balance.Sub(entry.Amount)
		if balance.IsNegative() && !entry.AllowOverdraft {
			return nil, fmt.Errorf("%w: balance %s, debit %s", ErrInsufficientFunds, wallet.Balance.StringFixed(2), entry.Amount.StringFixed(2))
		}
	}

	now := l.now()
	if err := repos.Wallets.UpdateBalance(ctx, wallet.ID, balance, now); err != nil {
		return nil, err
	}

	transactionID := entry.TransactionID
	if transactionID == "" {
		transactionID = uuid.New().String()
	}

	txn := &domain.WalletTransaction{
		ID:            uuid.New().String(),
		WalletID:      wallet.ID,
		Amount:        entry.Amount,
		Type:          txnType,
		Method:        entry.Method,
		RideID:        entry.RideID,
		TransactionID: transactionID,
		BalanceAfter:  balance,
		CreatedAt:     now,
	}
	if err := repos.WalletTransactions.Create(ctx, txn); err != nil {
		return nil, err
	}

	return txn, nil
}
