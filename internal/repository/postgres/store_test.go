package postgres

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
	"ridehail/internal/ledger"
	"ridehail/internal/repository"
)

// setupTestStore connects to the database named by RIDEHAIL_TEST_DSN, applies
// the schema and empties every table.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("RIDEHAIL_TEST_DSN")
	if dsn == "" {
		t.Skip("RIDEHAIL_TEST_DSN not set; skipping database tests")
	}

	ctx := context.Background()
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := Migrate(ctx, db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	truncate := `TRUNCATE TABLE ratings, wallet_transactions, wallets, payments, rides, ride_requests, drivers, riders, users`
	if _, err := db.ExecContext(ctx, truncate); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return NewStore(db)
}

type seed struct {
	riderUserID  string
	riderID      string
	driverUserID string
	driverID     string
	requestID    string
	rideID       string
	paymentID    string
}

// seedRide inserts a rider and a driver with a CONFIRMED ride between them
// and a PENDING payment for it.
func seedRide(t *testing.T, s *Store, fare string) seed {
	t.Helper()

	ctx := context.Background()
	repos := s.Repos()
	now := time.Now().UTC().Truncate(time.Microsecond)
	sd := seed{
		riderUserID:  uuid.NewString(),
		riderID:      uuid.NewString(),
		driverUserID: uuid.NewString(),
		driverID:     uuid.NewString(),
		requestID:    uuid.NewString(),
		rideID:       uuid.NewString(),
		paymentID:    uuid.NewString(),
	}
	pickup := domain.Point{Lat: 12.9716, Lng: 77.5946}
	dropoff := domain.Point{Lat: 12.9352, Lng: 77.6245}
	amount := decimal.RequireFromString(fare)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	must(repos.Users.Create(ctx, &domain.User{ID: sd.riderUserID, Name: "Rider", Email: sd.riderUserID + "@example.com", Roles: []domain.Role{domain.RoleRider}, CreatedAt: now}))
	must(repos.Users.Create(ctx, &domain.User{ID: sd.driverUserID, Name: "Driver", Email: sd.driverUserID + "@example.com", Roles: []domain.Role{domain.RoleDriver}, CreatedAt: now}))
	must(repos.Riders.Create(ctx, &domain.Rider{ID: sd.riderID, UserID: sd.riderUserID}))
	must(repos.Drivers.Create(ctx, &domain.Driver{ID: sd.driverID, UserID: sd.driverUserID, Available: true, Location: pickup, VehicleID: "KA01AB1234", UpdatedAt: now}))
	must(repos.RideRequests.Create(ctx, &domain.RideRequest{
		ID:              sd.requestID,
		RiderID:         sd.riderID,
		Pickup:          pickup,
		Dropoff:         dropoff,
		PaymentMethod:   domain.PaymentMethodWallet,
		Status:          domain.RideRequestStatusPending,
		Fare:            amount,
		DistanceKm:      4.5,
		SurgeMultiplier: 1,
		RequestedAt:     now,
	}))
	must(repos.Rides.Create(ctx, &domain.Ride{
		ID:            sd.rideID,
		RideRequestID: sd.requestID,
		RiderID:       sd.riderID,
		DriverID:      sd.driverID,
		Pickup:        pickup,
		Dropoff:       dropoff,
		PaymentMethod: domain.PaymentMethodWallet,
		Status:        domain.RideStatusConfirmed,
		OTP:           "123456",
		Fare:          amount,
		CreatedAt:     now,
	}))
	must(repos.Payments.Create(ctx, &domain.Payment{
		ID:        sd.paymentID,
		RideID:    sd.rideID,
		Method:    domain.PaymentMethodWallet,
		Amount:    amount,
		Status:    domain.PaymentStatusPending,
		CreatedAt: now,
	}))
	return sd
}

// race runs fn from n goroutines at once and counts the true results.
func race(t *testing.T, n int, fn func() (bool, error)) int {
	t.Helper()

	var wg sync.WaitGroup
	var wins atomic.Int32
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			ok, err := fn()
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			if ok {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	return int(wins.Load())
}

func TestDriverRepository_ClaimAvailabilityOnce(t *testing.T) {
	s := setupTestStore(t)
	sd := seedRide(t, s, "45.00")
	ctx := context.Background()

	wins := race(t, 10, func() (bool, error) {
		return s.Repos().Drivers.ClaimAvailability(ctx, sd.driverID)
	})
	if wins != 1 {
		t.Fatalf("expected exactly one claim, got %d", wins)
	}

	driver, err := s.Repos().Drivers.GetByID(ctx, sd.driverID)
	if err != nil {
		t.Fatalf("failed to load driver: %v", err)
	}
	if driver.Available {
		t.Error("expected driver to be unavailable")
	}
}

func TestRideRequestRepository_UpdateStatusIsCompareAndSet(t *testing.T) {
	s := setupTestStore(t)
	sd := seedRide(t, s, "45.00")
	ctx := context.Background()

	// Accept and cancel race for the same PENDING request.
	var n atomic.Int32
	wins := race(t, 10, func() (bool, error) {
		to := domain.RideRequestStatusConfirmed
		if n.Add(1)%2 == 0 {
			to = domain.RideRequestStatusCancelled
		}
		return s.Repos().RideRequests.UpdateStatus(ctx, sd.requestID, domain.RideRequestStatusPending, to)
	})
	if wins != 1 {
		t.Fatalf("expected exactly one transition out of PENDING, got %d", wins)
	}

	ok, err := s.Repos().RideRequests.UpdateStatus(ctx, sd.requestID, domain.RideRequestStatusPending, domain.RideRequestStatusCancelled)
	if err != nil || ok {
		t.Errorf("expected a stale transition to report false, got %v, %v", ok, err)
	}
}

func TestRideRepository_TransitionIsCompareAndSet(t *testing.T) {
	s := setupTestStore(t)
	sd := seedRide(t, s, "45.00")
	ctx := context.Background()

	started := time.Now().UTC().Truncate(time.Microsecond)
	wins := race(t, 10, func() (bool, error) {
		ride := &domain.Ride{ID: sd.rideID, Status: domain.RideStatusOngoing, StartedAt: started}
		return s.Repos().Rides.Transition(ctx, ride, domain.RideStatusConfirmed)
	})
	if wins != 1 {
		t.Fatalf("expected exactly one start, got %d", wins)
	}

	ride, err := s.Repos().Rides.GetByID(ctx, sd.rideID)
	if err != nil {
		t.Fatalf("failed to load ride: %v", err)
	}
	if ride.Status != domain.RideStatusOngoing || !ride.StartedAt.Equal(started) {
		t.Errorf("expected ONGOING ride started at %s, got %s at %s", started, ride.Status, ride.StartedAt)
	}
}

func TestPaymentRepository_ConfirmOnce(t *testing.T) {
	s := setupTestStore(t)
	sd := seedRide(t, s, "45.00")
	ctx := context.Background()

	wins := race(t, 10, func() (bool, error) {
		return s.Repos().Payments.Confirm(ctx, sd.paymentID, time.Now())
	})
	if wins != 1 {
		t.Fatalf("expected exactly one confirmation, got %d", wins)
	}

	payment, err := s.Repos().Payments.GetByRideID(ctx, sd.rideID)
	if err != nil {
		t.Fatalf("failed to load payment: %v", err)
	}
	if payment.Status != domain.PaymentStatusConfirmed || payment.ConfirmedAt.IsZero() {
		t.Errorf("expected a CONFIRMED payment with a timestamp, got %+v", payment)
	}
}

func TestPaymentRepository_CreateRejectsSecondPaymentForRide(t *testing.T) {
	s := setupTestStore(t)
	sd := seedRide(t, s, "45.00")

	err := s.Repos().Payments.Create(context.Background(), &domain.Payment{
		ID:        uuid.NewString(),
		RideID:    sd.rideID,
		Method:    domain.PaymentMethodWallet,
		Amount:    decimal.NewFromInt(45),
		Status:    domain.PaymentStatusPending,
		CreatedAt: time.Now(),
	})
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestStore_ConcurrentDebitsLockTheWallet(t *testing.T) {
	s := setupTestStore(t)
	sd := seedRide(t, s, "45.00")
	ctx := context.Background()

	err := s.Repos().Wallets.Create(ctx, &domain.Wallet{
		ID:        uuid.NewString(),
		UserID:    sd.riderUserID,
		Balance:   decimal.NewFromInt(10),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to create wallet: %v", err)
	}

	l := ledger.New()
	var declined atomic.Int32
	wins := race(t, 20, func() (bool, error) {
		err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
			_, err := l.Debit(ctx, repos, ledger.Entry{
				UserID: sd.riderUserID,
				Amount: decimal.NewFromInt(1),
				Method: domain.TransactionMethodRide,
			})
			return err
		})
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			declined.Add(1)
			return false, nil
		}
		return err == nil, err
	})
	if wins != 10 || declined.Load() != 10 {
		t.Fatalf("expected 10 debits and 10 declines, got %d and %d", wins, declined.Load())
	}

	wallet, err := s.Repos().Wallets.GetByUserID(ctx, sd.riderUserID)
	if err != nil {
		t.Fatalf("failed to load wallet: %v", err)
	}
	if !wallet.Balance.IsZero() {
		t.Errorf("expected balance 0, got %s", wallet.Balance)
	}

	txns, err := s.Repos().WalletTransactions.ListByWallet(ctx, wallet.ID, repository.Page{Limit: 100})
	if err != nil {
		t.Fatalf("failed to list transactions: %v", err)
	}
	if len(txns) != 10 {
		t.Fatalf("expected 10 transactions, got %d", len(txns))
	}
	seen := make(map[string]bool, len(txns))
	for _, txn := range txns {
		seen[txn.BalanceAfter.StringFixed(2)] = true
	}
	if len(seen) != 10 {
		t.Errorf("expected 10 distinct balances, got %d", len(seen))
	}
}
