package memory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

type paymentRepository struct {
	v *view
}

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.payments[payment.ID]; ok {
			return repository.ErrConflict
		}
		for _, existing := range st.payments {
			if existing.RideID == payment.RideID {
				return repository.ErrConflict
			}
		}
		st.payments[payment.ID] = *payment
		st.track(payment.ID)
		return nil
	})
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.v.do(func(st *state) error {
		p, ok := st.payments[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

func (r *paymentRepository) GetByRideID(ctx context.Context, rideID string) (*domain.Payment, error) {
	var out *domain.Payment
	err := r.v.do(func(st *state) error {
		for _, p := range st.payments {
			if p.RideID == rideID {
				out = &p
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *paymentRepository) GetByRideIDForUpdate(ctx context.Context, rideID string) (*domain.Payment, error) {
	return r.GetByRideID(ctx, rideID)
}

func (r *paymentRepository) Confirm(ctx context.Context, id string, at time.Time) (bool, error) {
	confirmed := false
	err := r.v.do(func(st *state) error {
		p, ok := st.payments[id]
		if !ok || p.Status != domain.PaymentStatusPending {
			return nil
		}
		p.Status = domain.PaymentStatusConfirmed
		p.ConfirmedAt = at
		st.payments[id] = p
		confirmed = true
		return nil
	})
	return confirmed, err
}

type walletRepository struct {
	v *view
}

func (r *walletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	return r.v.do(func(st *state) error {
		if _, ok := st.wallets[wallet.ID]; ok {
			return repository.ErrConflict
		}
		for _, existing := range st.wallets {
			if existing.UserID == wallet.UserID {
				return repository.ErrConflict
			}
		}
		st.wallets[wallet.ID] = *wallet
		st.track(wallet.ID)
		return nil
	})
}

func (r *walletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	var out *domain.Wallet
	err := r.v.do(func(st *state) error {
		for _, w := range st.wallets {
			if w.UserID == userID {
				out = &w
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *walletRepository) GetByUserIDForUpdate(ctx context.Context, userID string) (*domain.Wallet, error) {
	return r.GetByUserID(ctx, userID)
}

func (r *walletRepository) UpdateBalance(ctx context.Context, id string, balance decimal.Decimal, at time.Time) error {
	return r.v.do(func(st *state) error {
		w, ok := st.wallets[id]
		if !ok {
			return repository.ErrNotFound
		}
		w.Balance = balance
		w.UpdatedAt = at
		st.wallets[id] = w
		return nil
	})
}

type walletTransactionRepository struct {
	v *view
}

func (r *walletTransactionRepository) Create(ctx context.Context, txn *domain.WalletTransaction) error {
	return r.v.do(func(st *state) error {
		for _, existing := range st.walletTxns {
			if existing.TransactionID == txn.TransactionID {
				return repository.ErrConflict
			}
		}
		st.walletTxns = append(st.walletTxns, *txn)
		return nil
	})
}

func (r *walletTransactionRepository) ListByWallet(ctx context.Context, walletID string, page repository.Page) ([]*domain.WalletTransaction, error) {
	var out []*domain.WalletTransaction
	err := r.v.do(func(st *state) error {
		for i := len(st.walletTxns) - 1; i >= 0; i-- {
			if txn := st.walletTxns[i]; txn.WalletID == walletID {
				out = append(out, &txn)
			}
		}
		return nil
	})
	return window(out, page), err
}

func (r *walletTransactionRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.WalletTransaction, error) {
	var out []*domain.WalletTransaction
	err := r.v.do(func(st *state) error {
		for _, txn := range st.walletTxns {
			if txn.RideID == rideID {
				out = append(out, &txn)
			}
		}
		return nil
	})
	return out, err
}
