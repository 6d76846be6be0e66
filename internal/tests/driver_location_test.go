package tests

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"ridehail/internal/domain"
	"ridehail/internal/service"
)

func TestUpdateLocation_IndexesAndInvalidatesCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	h := newHarness(t)
	actor, driver := h.onboardDriver(t, pickup)
	before := atomic.LoadInt32(&h.cache.InvalidateCallCount)

	updated, err := h.drivers.UpdateLocation(ctx, service.UpdateLocationRequest{Actor: actor, Location: nearPickup})
	if err != nil {
		t.Fatalf("failed to update location: %v", err)
	}
	if updated.Location != nearPickup {
		t.Errorf("expected location %v, got %v", nearPickup, updated.Location)
	}

	indexed, ok := h.locations.Location(driver.ID)
	if !ok || indexed != nearPickup {
		t.Errorf("expected indexed location %v, got %v (%v)", nearPickup, indexed, ok)
	}
	if got := h.driverByID(t, driver.ID).Location; got != nearPickup {
		t.Errorf("expected stored location %v, got %v", nearPickup, got)
	}
	if atomic.LoadInt32(&h.cache.InvalidateCallCount) != before+1 {
		t.Error("expected the cached profile to be invalidated")
	}
}

func TestUpdateLocation_Rejections(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	actor, _ := h.onboardDriver(t, pickup)
	rider := h.signUpRider(t, "")

	testCases := []struct {
		name     string
		actor    domain.Principal
		location domain.Point
		wantErr  error
	}{
		{
			name:     "latitude out of range",
			actor:    actor,
			location: domain.Point{Lat: -90.5, Lng: 10},
			wantErr:  service.ErrInvalidLocation,
		},
		{
			name:     "longitude out of range",
			actor:    actor,
			location: domain.Point{Lat: 10, Lng: 180.1},
			wantErr:  service.ErrInvalidLocation,
		},
		{
			name:     "rider without driver profile",
			actor:    rider,
			location: nearPickup,
			wantErr:  service.ErrDriverNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.drivers.UpdateLocation(context.Background(), service.UpdateLocationRequest{Actor: tc.actor, Location: tc.location})
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestUpdateLocation_IndexFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	actor, _ := h.onboardDriver(t, pickup)
	h.locations.UpdateLocationError = ErrMockRedis

	_, err := h.drivers.UpdateLocation(context.Background(), service.UpdateLocationRequest{Actor: actor, Location: nearPickup})
	if !errors.Is(err, ErrMockRedis) {
		t.Errorf("expected index error, got %v", err)
	}
}
