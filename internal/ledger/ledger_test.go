package ledger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
)

func newWalletStore(t *testing.T, userID string, balance string) *memory.Store {
	t.Helper()
	s := memory.NewStore()
	err := s.Repos().Wallets.Create(context.Background(), &domain.Wallet{
		ID:      "wallet-" + userID,
		UserID:  userID,
		Balance: decimal.RequireFromString(balance),
	})
	if err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}
	return s
}

func balanceOf(t *testing.T, s *memory.Store, userID string) decimal.Decimal {
	t.Helper()
	w, err := s.Repos().Wallets.GetByUserID(context.Background(), userID)
	if err != nil {
		t.Fatalf("failed to load wallet: %v", err)
	}
	return w.Balance
}

func TestLedger_CreditAndDebitRecordTransactions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newWalletStore(t, "u1", "0")
	l := New()

	credit, err := l.Credit(ctx, s.Repos(), Entry{
		UserID: "u1",
		Amount: decimal.RequireFromString("100"),
		Method: domain.TransactionMethodBanking,
	})
	if err != nil {
		t.Fatalf("credit failed: %v", err)
	}
	if !credit.BalanceAfter.Equal(decimal.RequireFromString("100")) {
		t.Errorf("expected balance after 100, got %s", credit.BalanceAfter)
	}
	if credit.TransactionID == "" {
		t.Error("expected a generated transaction id")
	}

	debit, err := l.Debit(ctx, s.Repos(), Entry{
		UserID:        "u1",
		Amount:        decimal.RequireFromString("45.50"),
		Method:        domain.TransactionMethodRide,
		RideID:        "ride-1",
		TransactionID: "ride:ride-1:rider-debit",
	})
	if err != nil {
		t.Fatalf("debit failed: %v", err)
	}
	if debit.Type != domain.TransactionTypeDebit || !debit.Amount.IsPositive() {
		t.Errorf("expected positive DEBIT entry, got %s %s", debit.Type, debit.Amount)
	}

	if got := balanceOf(t, s, "u1"); !got.Equal(decimal.RequireFromString("54.50")) {
		t.Errorf("expected balance 54.50, got %s", got)
	}

	txns, err := s.Repos().WalletTransactions.ListByWallet(ctx, "wallet-u1", repository.Page{})
	if err != nil {
		t.Fatalf("failed to list transactions: %v", err)
	}
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}
	if txns[0].ID != debit.ID {
		t.Error("expected newest transaction first")
	}
}

func TestLedger_DebitRejectsOverdraft(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newWalletStore(t, "u1", "10")

	_, err := New().Debit(ctx, s.Repos(), Entry{UserID: "u1", Amount: decimal.RequireFromString("10.01"), Method: domain.TransactionMethodRide})
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Error("expected error to carry the domain kind")
	}
	if got := balanceOf(t, s, "u1"); !got.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected balance unchanged, got %s", got)
	}
}

func TestLedger_DebitAllowsOverdraftWhenRequested(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newWalletStore(t, "driver", "0")

	txn, err := New().Debit(ctx, s.Repos(), Entry{
		UserID:         "driver",
		Amount:         decimal.RequireFromString("13.50"),
		Method:         domain.TransactionMethodRide,
		AllowOverdraft: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !txn.BalanceAfter.Equal(decimal.RequireFromString("-13.50")) {
		t.Errorf("expected balance -13.50, got %s", txn.BalanceAfter)
	}
}

func TestLedger_RejectsNonPositiveAmounts(t *testing.T) {
	t.Parallel()

	s := newWalletStore(t, "u1", "10")
	for _, amount := range []string{"0", "-5"} {
		_, err := New().Credit(context.Background(), s.Repos(), Entry{UserID: "u1", Amount: decimal.RequireFromString(amount)})
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}
}

func TestLedger_MissingWallet(t *testing.T) {
	t.Parallel()

	_, err := New().Credit(context.Background(), memory.NewStore().Repos(), Entry{UserID: "ghost", Amount: decimal.NewFromInt(1)})
	if !errors.Is(err, ErrWalletNotFound) || !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestLedger_DuplicateTransactionIDRollsBackInTx(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newWalletStore(t, "u1", "0")
	l := New()
	entry := Entry{UserID: "u1", Amount: decimal.NewFromInt(50), Method: domain.TransactionMethodBanking, TransactionID: "bank-ref-1"}

	if _, err := l.Credit(ctx, s.Repos(), entry); err != nil {
		t.Fatalf("first credit failed: %v", err)
	}

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, err := l.Credit(ctx, repos, entry)
		return err
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if got := balanceOf(t, s, "u1"); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected balance 50 after rollback, got %s", got)
	}
}

func TestLedger_ConcurrentDebitsInTxNeverOverdraw(t *testing.T) {
	t.Parallel()

	const workers = 20

	ctx := context.Background()
	s := newWalletStore(t, "u1", "10")
	l := New()

	var wg sync.WaitGroup
	var succeeded, declined atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
				_, err := l.Debit(ctx, repos, Entry{UserID: "u1", Amount: decimal.NewFromInt(1), Method: domain.TransactionMethodRide})
				return err
			})
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrInsufficientFunds):
				declined.Add(1)
			default:
				t.Errorf("unexpected debit error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded.Load() != 10 || declined.Load() != workers-10 {
		t.Errorf("expected 10 debits and %d declines, got %d and %d", workers-10, succeeded.Load(), declined.Load())
	}
	if got := balanceOf(t, s, "u1"); !got.IsZero() {
		t.Errorf("expected balance 0, got %s", got)
	}

	txns, err := s.Repos().WalletTransactions.ListByWallet(ctx, "wallet-u1", repository.Page{Limit: 100})
	if err != nil {
		t.Fatalf("failed to list transactions: %v", err)
	}
	if len(txns) != 10 {
		t.Fatalf("expected 10 transactions, got %d", len(txns))
	}
	seen := make(map[string]bool, len(txns))
	for _, txn := range txns {
		seen[txn.BalanceAfter.String()] = true
	}
	for want := 0; want < 10; want++ {
		if !seen[decimal.NewFromInt(int64(want)).String()] {
			t.Errorf("expected an entry leaving balance %d", want)
		}
	}
}
