package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

var errBoom = errors.New("boom")

func seedDriver(t *testing.T, s *Store, id string, p domain.Point, available bool) {
	t.Helper()
	err := s.Repos().Drivers.Create(context.Background(), &domain.Driver{
		ID:        id,
		UserID:    "user-" + id,
		Available: available,
		Location:  p,
		VehicleID: "KA-01-" + id,
	})
	if err != nil {
		t.Fatalf("failed to seed driver: %v", err)
	}
}

func TestStore_WithinTxRollsBackOnError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	seedDriver(t, s, "d1", domain.Point{Lat: 12.97, Lng: 77.59}, true)

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Drivers.ClaimAvailability(ctx, "d1"); err != nil {
			return err
		}
		return errBoom
	})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected errBoom, got %v", err)
	}

	d, err := s.Repos().Drivers.GetByID(ctx, "d1")
	if err != nil {
		t.Fatalf("failed to load driver: %v", err)
	}
	if !d.Available {
		t.Error("expected claim to be rolled back")
	}
}

func TestStore_WithinTxCommits(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	seedDriver(t, s, "d1", domain.Point{Lat: 12.97, Lng: 77.59}, true)

	err := s.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		_, err := repos.Drivers.ClaimAvailability(ctx, "d1")
		return err
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d, _ := s.Repos().Drivers.GetByID(ctx, "d1")
	if d.Available {
		t.Error("expected claim to be committed")
	}
}

func TestStore_WithinTxHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewStore().WithinTx(ctx, func(context.Context, repository.Repositories) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if called {
		t.Error("expected fn not to run")
	}
}

func TestDriverRepository_ClaimAvailabilityOnlyOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	seedDriver(t, s, "d1", domain.Point{}, true)

	first, err := s.Repos().Drivers.ClaimAvailability(ctx, "d1")
	if err != nil || !first {
		t.Fatalf("expected first claim to succeed, got %v, %v", first, err)
	}
	second, err := s.Repos().Drivers.ClaimAvailability(ctx, "d1")
	if err != nil || second {
		t.Fatalf("expected second claim to fail, got %v, %v", second, err)
	}
}

func TestDriverRepository_ListAvailableNear(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	pickup := domain.Point{Lat: 12.9716, Lng: 77.5946}

	seedDriver(t, s, "far", domain.Point{Lat: 13.2, Lng: 77.7}, true)      // ~28 km
	seedDriver(t, s, "near", domain.Point{Lat: 12.972, Lng: 77.595}, true) // <1 km
	seedDriver(t, s, "mid", domain.Point{Lat: 13.0, Lng: 77.6}, true)      // ~3 km
	seedDriver(t, s, "busy", domain.Point{Lat: 12.9716, Lng: 77.5946}, false)

	drivers, err := s.Repos().Drivers.ListAvailableNear(ctx, pickup, 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drivers) != 2 {
		t.Fatalf("expected 2 drivers, got %d", len(drivers))
	}
	if drivers[0].ID != "near" || drivers[1].ID != "mid" {
		t.Errorf("expected [near mid], got [%s %s]", drivers[0].ID, drivers[1].ID)
	}

	limited, _ := s.Repos().Drivers.ListAvailableNear(ctx, pickup, 10, 1)
	if len(limited) != 1 || limited[0].ID != "near" {
		t.Errorf("expected only the nearest driver, got %v", limited)
	}
}

func TestRideRequestRepository_UpdateStatusIsConditional(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := NewStore().Repos()

	req := &domain.RideRequest{ID: "rr1", RiderID: "r1", Status: domain.RideRequestStatusPending, Fare: decimal.NewFromInt(45)}
	if err := repos.RideRequests.Create(ctx, req); err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	ok, err := repos.RideRequests.UpdateStatus(ctx, "rr1", domain.RideRequestStatusPending, domain.RideRequestStatusConfirmed)
	if err != nil || !ok {
		t.Fatalf("expected first update to apply, got %v, %v", ok, err)
	}
	ok, err = repos.RideRequests.UpdateStatus(ctx, "rr1", domain.RideRequestStatusPending, domain.RideRequestStatusCancelled)
	if err != nil || ok {
		t.Fatalf("expected stale update to be rejected, got %v, %v", ok, err)
	}

	got, _ := repos.RideRequests.GetByID(ctx, "rr1")
	if got.Status != domain.RideRequestStatusConfirmed {
		t.Errorf("expected CONFIRMED, got %s", got.Status)
	}
}

func TestRideRepository_OneRidePerRequest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := NewStore().Repos()

	if err := repos.Rides.Create(ctx, &domain.Ride{ID: "a", RideRequestID: "rr1"}); err != nil {
		t.Fatalf("failed to create ride: %v", err)
	}
	err := repos.Rides.Create(ctx, &domain.Ride{ID: "b", RideRequestID: "rr1"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}
}

func TestRideRepository_ListByRiderNewestFirstWithPaging(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := NewStore().Repos()

	for i := range 5 {
		ride := &domain.Ride{
			ID:            fmt.Sprintf("ride-%d", i),
			RideRequestID: fmt.Sprintf("rr-%d", i),
			RiderID:       "r1",
			CreatedAt:     time.Now(),
		}
		if err := repos.Rides.Create(ctx, ride); err != nil {
			t.Fatalf("failed to create ride: %v", err)
		}
	}
	_ = repos.Rides.Create(ctx, &domain.Ride{ID: "other", RideRequestID: "rr-x", RiderID: "r2"})

	page, err := repos.Rides.ListByRider(ctx, "r1", repository.Page{Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 2 || page[0].ID != "ride-3" || page[1].ID != "ride-2" {
		t.Errorf("expected [ride-3 ride-2], got %v", rideIDs(page))
	}

	beyond, _ := repos.Rides.ListByRider(ctx, "r1", repository.Page{Limit: 2, Offset: 10})
	if len(beyond) != 0 {
		t.Errorf("expected empty page, got %d rides", len(beyond))
	}
}

func TestRideRepository_TransitionIsConditional(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := NewStore().Repos()
	_ = repos.Rides.Create(ctx, &domain.Ride{ID: "a", RideRequestID: "rr1", Status: domain.RideStatusConfirmed})

	ride, _ := repos.Rides.GetByID(ctx, "a")
	ride.Status = domain.RideStatusOngoing
	if ok, err := repos.Rides.Transition(ctx, ride, domain.RideStatusConfirmed); err != nil || !ok {
		t.Fatalf("expected transition to apply, got %v, %v", ok, err)
	}

	ride.Status = domain.RideStatusCancelled
	if ok, err := repos.Rides.Transition(ctx, ride, domain.RideStatusConfirmed); err != nil || ok {
		t.Fatalf("expected stale transition to be rejected, got %v, %v", ok, err)
	}
}

func TestPaymentRepository_ConfirmOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := NewStore().Repos()
	_ = repos.Payments.Create(ctx, &domain.Payment{ID: "p1", RideID: "ride-1", Status: domain.PaymentStatusPending})

	if err := repos.Payments.Create(ctx, &domain.Payment{ID: "p2", RideID: "ride-1"}); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected ErrConflict for a second payment, got %v", err)
	}

	now := time.Now()
	if ok, _ := repos.Payments.Confirm(ctx, "p1", now); !ok {
		t.Fatal("expected first confirm to apply")
	}
	if ok, _ := repos.Payments.Confirm(ctx, "p1", now); ok {
		t.Error("expected second confirm to be rejected")
	}
}

func TestUserRepository_UniqueEmail(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repos := NewStore().Repos()

	_ = repos.Users.Create(ctx, &domain.User{ID: "u1", Email: "a@example.com"})
	err := repos.Users.Create(ctx, &domain.User{ID: "u2", Email: "a@example.com"})
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	if _, err := repos.Users.GetByEmail(ctx, "missing@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_ReturnedValuesAreCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewStore()
	seedDriver(t, s, "d1", domain.Point{}, true)

	d, _ := s.Repos().Drivers.GetByID(ctx, "d1")
	d.Available = false

	again, _ := s.Repos().Drivers.GetByID(ctx, "d1")
	if !again.Available {
		t.Error("expected stored driver to be unaffected by caller mutation")
	}
}

func rideIDs(rides []*domain.Ride) []string {
	ids := make([]string, 0, len(rides))
	for _, r := range rides {
		ids = append(ids, r.ID)
	}
	return ids
}
