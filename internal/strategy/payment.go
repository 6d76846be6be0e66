package strategy

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
	"ridehail/internal/ledger"
	"ridehail/internal/repository"
)

// ErrUnsupportedPaymentMethod is returned when no strategy handles a method.
var ErrUnsupportedPaymentMethod = fmt.Errorf("%w: unsupported payment method", domain.ErrInvalidInput)

// PaymentStrategy moves the money of a ride through the ledger. It runs
// inside the settlement transaction and must not commit on its own.
type PaymentStrategy interface {
	Settle(ctx context.Context, repos repository.Repositories, ride *domain.Ride, payment *domain.Payment) ([]*domain.WalletTransaction, error)
}

// WalletPayment debits the rider the full fare and credits the driver the
// fare net of the platform commission.
type WalletPayment struct {
	ledger     *ledger.Ledger
	commission decimal.Decimal
}

// Settle writes the rider debit and the driver credit. A leg that rounds to
// zero is not written, so a free ride still settles.
func (p *WalletPayment) Settle(ctx context.Context, repos repository.Repositories, ride *domain.Ride, payment *domain.Payment) ([]*domain.WalletTransaction, error) {
	riderUserID, driverUserID, err := rideParties(ctx, repos, ride)
	if err != nil {
		return nil, err
	}

	txns := make([]*domain.WalletTransaction, 0, 2)

	if fare := payment.Amount.Round(2); fare.IsPositive() {
		debit, err := p.ledger.Debit(ctx, repos, ledger.Entry{
			UserID:        riderUserID,
			Amount:        fare,
			Method:        domain.TransactionMethodRide,
			RideID:        ride.ID,
			TransactionID: settlementTxnID(ride.ID, "rider-debit"),
		})
		if err != nil {
			return nil, fmt.Errorf("debit rider: %w", err)
		}
		txns = append(txns, debit)
	}

	if earning := driverShare(payment.Amount, p.commission); earning.IsPositive() {
		credit, err := p.ledger.Credit(ctx, repos, ledger.Entry{
			UserID:        driverUserID,
			Amount:        earning,
			Method:        domain.TransactionMethodRide,
			RideID:        ride.ID,
			TransactionID: settlementTxnID(ride.ID, "driver-credit"),
		})
		if err != nil {
			return nil, fmt.Errorf("credit driver: %w", err)
		}
		txns = append(txns, credit)
	}

	return txns, nil
}

// CashPayment records the commission the driver owes after collecting cash.
// The driver's wallet may go negative.
type CashPayment struct {
	ledger     *ledger.Ledger
	commission decimal.Decimal
}

// Settle writes the commission debit on the driver's wallet. Nothing is
// written when the commission rounds to zero.
func (p *CashPayment) Settle(ctx context.Context, repos repository.Repositories, ride *domain.Ride, payment *domain.Payment) ([]*domain.WalletTransaction, error) {
	_, driverUserID, err := rideParties(ctx, repos, ride)
	if err != nil {
		return nil, err
	}

	commission := payment.Amount.Mul(p.commission).Round(2)
	if !commission.IsPositive() {
		return []*domain.WalletTransaction{}, nil
	}

	debit, err := p.ledger.Debit(ctx, repos, ledger.Entry{
		UserID:         driverUserID,
		Amount:         commission,
		Method:         domain.TransactionMethodRide,
		RideID:         ride.ID,
		TransactionID:  settlementTxnID(ride.ID, "commission"),
		AllowOverdraft: true,
	})
	if err != nil {
		return nil, fmt.Errorf("debit driver commission: %w", err)
	}

	return []*domain.WalletTransaction{debit}, nil
}

// PaymentRegistry resolves the payment strategy for a method.
type PaymentRegistry struct {
	strategies map[domain.PaymentMethod]PaymentStrategy
}

// NewPaymentRegistry registers the wallet and cash strategies.
func NewPaymentRegistry(l *ledger.Ledger, commission decimal.Decimal) *PaymentRegistry {
	return &PaymentRegistry{
		strategies: map[domain.PaymentMethod]PaymentStrategy{
			domain.PaymentMethodWallet: &WalletPayment{ledger: l, commission: commission},
			domain.PaymentMethodCash:   &CashPayment{ledger: l, commission: commission},
		},
	}
}

// Get returns the strategy for method.
func (r *PaymentRegistry) Get(method domain.PaymentMethod) (PaymentStrategy, error) {
	s, ok := r.strategies[method]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPaymentMethod, method)
	}
	return s, nil
}

// rideParties resolves the user IDs owning the rider and driver wallets.
func rideParties(ctx context.Context, repos repository.Repositories, ride *domain.Ride) (riderUserID, driverUserID string, err error) {
	rider, err := repos.Riders.GetByID(ctx, ride.RiderID)
	if err != nil {
		return "", "", fmt.Errorf("load rider: %w", err)
	}
	driver, err := repos.Drivers.GetByID(ctx, ride.DriverID)
	if err != nil {
		return "", "", fmt.Errorf("load driver: %w", err)
	}
	return rider.UserID, driver.UserID, nil
}

// driverShare is the fare net of the platform commission.
func driverShare(fare, commission decimal.Decimal) decimal.Decimal {
	return fare.Mul(decimal.NewFromInt(1).Sub(commission)).Round(2)
}

// settlementTxnID derives a stable transaction ID so a ride can never be
// settled twice, even by concurrent retries.
func settlementTxnID(rideID, leg string) string {
	return "ride:" + rideID + ":" + leg
}
