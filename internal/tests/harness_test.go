package tests

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"ridehail/internal/domain"
	"ridehail/internal/events"
	"ridehail/internal/ledger"
	"ridehail/internal/repository"
	"ridehail/internal/repository/memory"
	"ridehail/internal/service"
	"ridehail/internal/strategy"
)

var (
	pickup  = domain.Point{Lat: 12.9716, Lng: 77.5946}
	dropoff = domain.Point{Lat: 12.9352, Lng: 77.6245}

	// Roughly 300 m from pickup.
	nearPickup = domain.Point{Lat: 12.9740, Lng: 77.5960}
)

// fixedSurge is a SurgeEstimator with a constant multiplier.
type fixedSurge float64

func (f fixedSurge) Multiplier(context.Context, domain.Point) float64 { return float64(f) }

// harness wires every service over the in-memory store and mocked Redis.
type harness struct {
	store     *memory.Store
	locations *MockLocationStore
	locks     *MockLockStore
	cache     *MockDriverCache
	publisher *RecordingPublisher
	distance  *StubDistance

	riders     *service.RiderService
	drivers    *service.DriverService
	payments   *service.PaymentService
	wallets    *service.WalletService
	onboarding *service.OnboardingService
	ratings    *service.RatingService

	seq atomic.Int32
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	surge service.SurgeEstimator
	geo   bool
}

func withSurge(multiplier float64) harnessOption {
	return func(c *harnessConfig) { c.surge = fixedSurge(multiplier) }
}

func withGeoMatching() harnessOption {
	return func(c *harnessConfig) { c.geo = true }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	var cfg harnessConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &harness{
		store:     memory.NewStore(),
		locations: NewMockLocationStore(),
		locks:     NewMockLockStore(),
		cache:     NewMockDriverCache(),
		publisher: NewRecordingPublisher(),
		distance:  NewStubDistance(4.5),
	}

	logger := slog.New(slog.DiscardHandler)
	repos := h.store.Repos()
	l := ledger.New()

	var candidates strategy.CandidateSource = strategy.NewRepositoryCandidates(repos.Drivers)
	if cfg.geo {
		candidates = strategy.NewGeoCandidates(h.locations, h.cache, repos.Drivers, logger)
	}

	fares := strategy.NewFareRegistry(h.distance, decimal.NewFromInt(10))
	matching := strategy.NewMatchingRegistry(candidates, strategy.DefaultMatchingConfig())
	payments := strategy.NewPaymentRegistry(l, decimal.RequireFromString("0.3"))
	dispatcher := events.NewDispatcher(h.publisher, logger)

	h.payments = service.NewPaymentService(h.store, payments, dispatcher, logger)
	h.riders = service.NewRiderService(h.store, fares, matching, cfg.surge, h.cache, dispatcher, logger)
	h.drivers = service.NewDriverService(h.store, h.locations, h.locks, h.cache, h.payments, dispatcher, logger)
	h.wallets = service.NewWalletService(h.store, l)
	h.onboarding = service.NewOnboardingService(h.store)
	h.ratings = service.NewRatingService(h.store)

	return h
}

func (h *harness) nextEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, h.seq.Add(1))
}

// signUpRider creates a rider and optionally funds the wallet.
func (h *harness) signUpRider(t *testing.T, balance string) domain.Principal {
	t.Helper()
	ctx := context.Background()

	resp, err := h.onboarding.SignUp(ctx, service.SignUpRequest{Name: "Rider", Email: h.nextEmail("rider")})
	if err != nil {
		t.Fatalf("failed to sign up rider: %v", err)
	}
	actor := domain.Principal{UserID: resp.User.ID}

	if balance != "" && balance != "0" {
		if _, err := h.wallets.AddMoney(ctx, service.AddMoneyRequest{Actor: actor, Amount: decimal.RequireFromString(balance)}); err != nil {
			t.Fatalf("failed to fund wallet: %v", err)
		}
	}
	return actor
}

// onboardDriver creates an available driver positioned at p.
func (h *harness) onboardDriver(t *testing.T, p domain.Point) (domain.Principal, *domain.Driver) {
	t.Helper()
	ctx := context.Background()

	resp, err := h.onboarding.SignUp(ctx, service.SignUpRequest{Name: "Driver", Email: h.nextEmail("driver")})
	if err != nil {
		t.Fatalf("failed to sign up driver: %v", err)
	}
	actor := domain.Principal{UserID: resp.User.ID}

	if _, err := h.onboarding.OnboardDriver(ctx, service.OnboardDriverRequest{UserID: actor.UserID, VehicleID: "KA-01-AB-1234"}); err != nil {
		t.Fatalf("failed to onboard driver: %v", err)
	}
	driver, err := h.drivers.UpdateLocation(ctx, service.UpdateLocationRequest{Actor: actor, Location: p})
	if err != nil {
		t.Fatalf("failed to position driver: %v", err)
	}
	return actor, driver
}

func (h *harness) requestRide(t *testing.T, rider domain.Principal, method domain.PaymentMethod) *service.RequestRideResponse {
	t.Helper()
	resp, err := h.riders.RequestRide(context.Background(), service.RequestRideRequest{
		Actor:         rider,
		Pickup:        pickup,
		Dropoff:       dropoff,
		PaymentMethod: method,
	})
	if err != nil {
		t.Fatalf("failed to request ride: %v", err)
	}
	return resp
}

func (h *harness) acceptRide(t *testing.T, driver domain.Principal, rideRequestID string) *domain.Ride {
	t.Helper()
	ride, err := h.drivers.AcceptRide(context.Background(), service.AcceptRideRequest{Actor: driver, RideRequestID: rideRequestID})
	if err != nil {
		t.Fatalf("failed to accept ride: %v", err)
	}
	return ride
}

func (h *harness) startRide(t *testing.T, driver domain.Principal, ride *domain.Ride) *service.StartRideResponse {
	t.Helper()
	resp, err := h.drivers.StartRide(context.Background(), service.StartRideRequest{Actor: driver, RideID: ride.ID, OTP: ride.OTP})
	if err != nil {
		t.Fatalf("failed to start ride: %v", err)
	}
	return resp
}

func (h *harness) balance(t *testing.T, actor domain.Principal) string {
	t.Helper()
	w, err := h.wallets.GetWallet(context.Background(), actor)
	if err != nil {
		t.Fatalf("failed to load wallet: %v", err)
	}
	return w.Balance.StringFixed(2)
}

func (h *harness) driverByID(t *testing.T, id string) *domain.Driver {
	t.Helper()
	d, err := h.store.Repos().Drivers.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to load driver: %v", err)
	}
	return d
}

func (h *harness) fund(t *testing.T, actor domain.Principal, amount string) {
	t.Helper()
	if _, err := h.wallets.AddMoney(context.Background(), service.AddMoneyRequest{Actor: actor, Amount: decimal.RequireFromString(amount)}); err != nil {
		t.Fatalf("failed to fund wallet: %v", err)
	}
}

func firstPage() repository.Page {
	return repository.Page{}
}
