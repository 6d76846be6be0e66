package service

import (
	"context"
	"log/slog"
	"time"

	"ridehail/internal/domain"
	"ridehail/internal/events"
	"ridehail/internal/repository"
	"ridehail/internal/strategy"
)

// PaymentService settles ride payments through the payment strategies.
type PaymentService struct {
	store      repository.Store
	registry   *strategy.PaymentRegistry
	dispatcher *events.Dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	store repository.Store,
	registry *strategy.PaymentRegistry,
	dispatcher *events.Dispatcher,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		store:      store,
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// Settlement is the outcome of settling a ride.
type Settlement struct {
	Payment      *domain.Payment
	Transactions []*domain.WalletTransaction

	// AlreadySettled is true when the payment was CONFIRMED before the call.
	AlreadySettled bool
}

// SettleRide runs the payment strategy of an ENDED ride and confirms its
// payment in one transaction. Settling a CONFIRMED payment again changes
// nothing and returns the existing ledger entries.
func (s *PaymentService) SettleRide(ctx context.Context, rideID string) (*Settlement, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	var result Settlement
	err := s.store.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		ride, err := repos.Rides.GetByID(ctx, rideID)
		if err != nil {
			return notFound(err, ErrRideNotFound)
		}
		if ride.Status != domain.RideStatusEnded {
			return ErrRideNotEnded
		}

		payment, err := repos.Payments.GetByRideIDForUpdate(ctx, rideID)
		if err != nil {
			return notFound(err, ErrPaymentNotFound)
		}

		if payment.Status == domain.PaymentStatusConfirmed {
			txns, err := repos.WalletTransactions.ListByRide(ctx, rideID)
			if err != nil {
				return err
			}
			result = Settlement{Payment: payment, Transactions: txns, AlreadySettled: true}
			return nil
		}

		paymentStrategy, err := s.registry.Get(payment.Method)
		if err != nil {
			return err
		}

		txns, err := paymentStrategy.Settle(ctx, repos, ride, payment)
		if err != nil {
			return err
		}

		now := s.now()
		confirmed, err := repos.Payments.Confirm(ctx, payment.ID, now)
		if err != nil {
			return err
		}
		if !confirmed {
			return repository.ErrConflict
		}
		payment.Status = domain.PaymentStatusConfirmed
		payment.ConfirmedAt = now

		result = Settlement{Payment: payment, Transactions: txns}
		return nil
	})
	if err != nil {
		s.dispatcher.Emit(ctx, events.PaymentFailed, map[string]any{
			"ride_id": rideID,
			"error":   err.Error(),
		})
		return nil, err
	}

	if !result.AlreadySettled {
		s.dispatcher.Emit(ctx, events.PaymentConfirmed, map[string]any{
			"ride_id":    rideID,
			"payment_id": result.Payment.ID,
			"method":     result.Payment.Method,
			"amount":     result.Payment.Amount.StringFixed(2),
		})
	}

	return &result, nil
}

// RetrySettlementRequest contains the parameters for retrying a settlement.
type RetrySettlementRequest struct {
	Actor  domain.Principal
	RideID string
}

// RetrySettlement settles a ride on behalf of one of its participants.
func (s *PaymentService) RetrySettlement(ctx context.Context, req RetrySettlementRequest) (*Settlement, error) {
	if _, err := s.GetPayment(ctx, req.Actor, req.RideID); err != nil {
		return nil, err
	}
	return s.SettleRide(ctx, req.RideID)
}

// GetPayment returns the payment of a ride the actor takes part in.
func (s *PaymentService) GetPayment(ctx context.Context, actor domain.Principal, rideID string) (*domain.Payment, error) {
	if rideID == "" {
		return nil, ErrInvalidRideID
	}

	repos := s.store.Repos()
	ride, err := repos.Rides.GetByID(ctx, rideID)
	if err != nil {
		return nil, notFound(err, ErrRideNotFound)
	}
	if _, err := participantRole(ctx, repos, actor, ride); err != nil {
		return nil, err
	}

	payment, err := repos.Payments.GetByRideID(ctx, rideID)
	if err != nil {
		return nil, notFound(err, ErrPaymentNotFound)
	}
	return payment, nil
}
