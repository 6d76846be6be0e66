package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
	"ridehail/internal/ledger"
	"ridehail/internal/service"
)

func TestSignUp(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)

	resp, err := h.onboarding.SignUp(ctx, service.SignUpRequest{Name: "  Asha  ", Email: "Asha@Example.com"})
	if err != nil {
		t.Fatalf("failed to sign up: %v", err)
	}
	if resp.User.Name != "Asha" || resp.User.Email != "asha@example.com" {
		t.Errorf("expected normalized user, got %q %q", resp.User.Name, resp.User.Email)
	}
	if !resp.User.HasRole(domain.RoleRider) || resp.User.HasRole(domain.RoleDriver) {
		t.Errorf("expected only the RIDER role, got %v", resp.User.Roles)
	}
	if resp.Rider.UserID != resp.User.ID || resp.Wallet.UserID != resp.User.ID {
		t.Error("expected rider profile and wallet to belong to the user")
	}
	if !resp.Wallet.Balance.IsZero() {
		t.Errorf("expected empty wallet, got %s", resp.Wallet.Balance)
	}

	_, err = h.onboarding.SignUp(ctx, service.SignUpRequest{Name: "Other", Email: "ASHA@example.com "})
	if !errors.Is(err, domain.ErrDuplicateUser) {
		t.Errorf("expected duplicate user, got %v", err)
	}
}

func TestSignUp_Validation(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	testCases := []struct {
		name    string
		req     service.SignUpRequest
		wantErr error
	}{
		{name: "blank name", req: service.SignUpRequest{Name: " ", Email: "a@example.com"}, wantErr: service.ErrInvalidName},
		{name: "malformed email", req: service.SignUpRequest{Name: "A", Email: "not-an-email"}, wantErr: service.ErrInvalidEmail},
		{name: "empty email", req: service.SignUpRequest{Name: "A"}, wantErr: service.ErrInvalidEmail},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.onboarding.SignUp(context.Background(), tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestOnboardDriver(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	actor := h.signUpRider(t, "")

	driver, err := h.onboarding.OnboardDriver(ctx, service.OnboardDriverRequest{UserID: actor.UserID, VehicleID: " KA-05-MN-4321 "})
	if err != nil {
		t.Fatalf("failed to onboard: %v", err)
	}
	if !driver.Available || driver.VehicleID != "KA-05-MN-4321" {
		t.Errorf("expected available driver with trimmed vehicle, got %+v", driver)
	}

	user, err := h.store.Repos().Users.GetByID(ctx, actor.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if !user.HasRole(domain.RoleDriver) || !user.HasRole(domain.RoleRider) {
		t.Errorf("expected both roles, got %v", user.Roles)
	}

	_, err = h.onboarding.OnboardDriver(ctx, service.OnboardDriverRequest{UserID: actor.UserID, VehicleID: "X"})
	if !errors.Is(err, service.ErrAlreadyDriver) {
		t.Errorf("expected ErrAlreadyDriver, got %v", err)
	}

	_, err = h.onboarding.OnboardDriver(ctx, service.OnboardDriverRequest{UserID: "nobody", VehicleID: "X"})
	if !errors.Is(err, service.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	_, err = h.onboarding.OnboardDriver(ctx, service.OnboardDriverRequest{UserID: actor.UserID})
	if !errors.Is(err, service.ErrInvalidVehicleID) {
		t.Errorf("expected ErrInvalidVehicleID, got %v", err)
	}
}

func TestWallet_AddMoneyAndHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	actor := h.signUpRider(t, "")

	for _, amount := range []string{"0", "-5"} {
		_, err := h.wallets.AddMoney(ctx, service.AddMoneyRequest{Actor: actor, Amount: decimal.RequireFromString(amount)})
		if !errors.Is(err, ledger.ErrInvalidAmount) {
			t.Errorf("amount %s: expected ErrInvalidAmount, got %v", amount, err)
		}
	}

	h.fund(t, actor, "40")
	txn, err := h.wallets.AddMoney(ctx, service.AddMoneyRequest{Actor: actor, Amount: decimal.RequireFromString("2.50"), TransactionID: "bank-ref-1"})
	if err != nil {
		t.Fatalf("failed to add money: %v", err)
	}
	if txn.Type != domain.TransactionTypeCredit || txn.Method != domain.TransactionMethodBanking {
		t.Errorf("expected BANKING credit, got %s %s", txn.Method, txn.Type)
	}
	if txn.BalanceAfter.StringFixed(2) != "42.50" {
		t.Errorf("expected balance after 42.50, got %s", txn.BalanceAfter.StringFixed(2))
	}

	// A replayed bank reference must not credit twice.
	_, err = h.wallets.AddMoney(ctx, service.AddMoneyRequest{Actor: actor, Amount: decimal.RequireFromString("2.50"), TransactionID: "bank-ref-1"})
	if err == nil {
		t.Error("expected duplicate transaction id to be rejected")
	}
	if got := h.balance(t, actor); got != "42.50" {
		t.Errorf("expected balance 42.50, got %s", got)
	}

	history, err := h.wallets.ListTransactions(ctx, actor, firstPage())
	if err != nil {
		t.Fatalf("failed to list transactions: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(history))
	}
	if history[0].TransactionID != "bank-ref-1" {
		t.Errorf("expected newest entry first, got %q", history[0].TransactionID)
	}

	if _, err := h.wallets.GetWallet(ctx, domain.Principal{UserID: "nobody"}); !errors.Is(err, ledger.ErrWalletNotFound) {
		t.Errorf("expected ErrWalletNotFound, got %v", err)
	}
}

func TestRating(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	rider := h.signUpRider(t, "")
	driverActor, driver := h.onboardDriver(t, nearPickup)
	ride := h.acceptRide(t, driverActor, h.requestRide(t, rider, domain.PaymentMethodCash).RideRequest.ID)

	_, err := h.ratings.RateDriver(ctx, service.RateRequest{Actor: rider, RideID: ride.ID, Score: 5})
	if !errors.Is(err, service.ErrRideNotEnded) {
		t.Errorf("expected ErrRideNotEnded before the ride ends, got %v", err)
	}

	h.startRide(t, driverActor, ride)
	if _, err := h.drivers.EndRide(ctx, service.EndRideRequest{Actor: driverActor, RideID: ride.ID}); err != nil {
		t.Fatalf("failed to end ride: %v", err)
	}

	if _, err := h.ratings.RateDriver(ctx, service.RateRequest{Actor: rider, RideID: ride.ID, Score: 6}); !errors.Is(err, service.ErrInvalidScore) {
		t.Errorf("expected ErrInvalidScore, got %v", err)
	}
	if _, err := h.ratings.RateDriver(ctx, service.RateRequest{Actor: driverActor, RideID: ride.ID, Score: 5}); !errors.Is(err, domain.ErrNotOwner) {
		t.Errorf("expected the driver not to rate themselves, got %v", err)
	}

	rating, err := h.ratings.RateDriver(ctx, service.RateRequest{Actor: rider, RideID: ride.ID, Score: 5})
	if err != nil {
		t.Fatalf("failed to rate driver: %v", err)
	}
	if rating.RateeID != driver.ID || rating.RaterRole != domain.RoleRider {
		t.Errorf("unexpected rating %+v", rating)
	}
	if got := h.driverByID(t, driver.ID).Rating; got != 5 {
		t.Errorf("expected driver rating 5, got %v", got)
	}

	if _, err := h.ratings.RateDriver(ctx, service.RateRequest{Actor: rider, RideID: ride.ID, Score: 4}); !errors.Is(err, service.ErrAlreadyRated) {
		t.Errorf("expected ErrAlreadyRated, got %v", err)
	}

	if _, err := h.ratings.RateRider(ctx, service.RateRequest{Actor: driverActor, RideID: ride.ID, Score: 3}); err != nil {
		t.Fatalf("failed to rate rider: %v", err)
	}
	riderProfile, err := h.store.Repos().Riders.GetByUserID(ctx, rider.UserID)
	if err != nil {
		t.Fatal(err)
	}
	if riderProfile.Rating != 3 {
		t.Errorf("expected rider rating 3, got %v", riderProfile.Rating)
	}
}
