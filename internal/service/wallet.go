package service

import (
	"context"

	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
	"ridehail/internal/ledger"
	"ridehail/internal/repository"
)

// WalletService exposes a user's wallet.
type WalletService struct {
	store  repository.Store
	ledger *ledger.Ledger
}

// NewWalletService creates a new WalletService.
func NewWalletService(store repository.Store, l *ledger.Ledger) *WalletService {
	return &WalletService{store: store, ledger: l}
}

// GetWallet returns the acting user's wallet.
func (s *WalletService) GetWallet(ctx context.Context, actor domain.Principal) (*domain.Wallet, error) {
	if actor.UserID == "" {
		return nil, ErrInvalidActor
	}
	wallet, err := s.store.Repos().Wallets.GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, notFound(err, ledger.ErrWalletNotFound)
	}
	return wallet, nil
}

// AddMoneyRequest contains the parameters for topping up a wallet.
type AddMoneyRequest struct {
	Actor         domain.Principal
	Amount        decimal.Decimal
	TransactionID string // optional; a retried top-up with the same ID is rejected
}

// AddMoney credits the acting user's wallet from a bank transfer.
func (s *WalletService) AddMoney(ctx context.Context, req AddMoneyRequest) (*domain.WalletTransaction, error) {
	if req.Actor.UserID == "" {
		return nil, ErrInvalidActor
	}

	var txn *domain.WalletTransaction
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		txn, err = s.ledger.Credit(ctx, repos, ledger.Entry{
			UserID:        req.Actor.UserID,
			Amount:        req.Amount,
			Method:        domain.TransactionMethodBanking,
			TransactionID: req.TransactionID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// ListTransactions returns the acting user's ledger entries, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, actor domain.Principal, page repository.Page) ([]*domain.WalletTransaction, error) {
	wallet, err := s.GetWallet(ctx, actor)
	if err != nil {
		return nil, err
	}
	return s.store.Repos().WalletTransactions.ListByWallet(ctx, wallet.ID, page)
}
