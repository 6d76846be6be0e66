package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ridehail/internal/domain"
	"ridehail/internal/events"
	"ridehail/internal/redis"
)

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is an in-memory GEO index.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations map[string]domain.Point

	// Counters
	UpdateLocationCallCount int32

	// Error injection
	UpdateLocationError    error
	FindNearbyDriversError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make(map[string]domain.Point),
	}
}

func (m *MockLocationStore) UpdateLocation(ctx context.Context, driverID string, p domain.Point) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locations[driverID] = p
	return nil
}

func (m *MockLocationStore) FindNearbyDrivers(ctx context.Context, p domain.Point, radiusKm float64, limit int) ([]redis.DriverLocation, error) {
	if m.FindNearbyDriversError != nil {
		return nil, m.FindNearbyDriversError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []redis.DriverLocation
	for id, loc := range m.locations {
		if d := p.HaversineKm(loc); d <= radiusKm {
			result = append(result, redis.DriverLocation{DriverID: id, Point: loc, DistanceKm: d})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].DistanceKm != result[j].DistanceKm {
			return result[i].DistanceKm < result[j].DistanceKm
		}
		return result[i].DriverID < result[j].DriverID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MockLocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locations, driverID)
	return nil
}

// Location returns the indexed position of a driver (for test assertions).
func (m *MockLocationStore) Location(driverID string) (domain.Point, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.locations[driverID]
	return p, ok
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

type mockLock struct {
	token  string
	expiry time.Time
}

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]mockLock

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]mockLock),
	}
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (string, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", m.AcquireError
	}
	if m.ForceAcquireFailure {
		return "", nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if held, exists := m.locks[driverID]; exists && time.Now().Before(held.expiry) {
		return "", nil // Lock still held.
	}

	token := uuid.New().String()
	m.locks[driverID] = mockLock{token: token, expiry: time.Now().Add(ttl)}
	return token, nil
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if held, ok := m.locks[driverID]; ok && held.token == token {
		delete(m.locks, driverID)
	}
	return nil
}

// IsLocked checks if a driver is locked (for test assertions).
func (m *MockLockStore) IsLocked(driverID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	held, exists := m.locks[driverID]
	return exists && time.Now().Before(held.expiry)
}

// ──────────────────────────────────────────────
// MOCK DRIVER CACHE
// ──────────────────────────────────────────────

// MockDriverCache is a mock implementation of the driver cache.
type MockDriverCache struct {
	mu      sync.RWMutex
	drivers map[string]domain.Driver

	// Counters
	InvalidateCallCount int32

	// Error injection
	GetError error
}

// NewMockDriverCache creates a new mock driver cache.
func NewMockDriverCache() *MockDriverCache {
	return &MockDriverCache{
		drivers: make(map[string]domain.Driver),
	}
}

func (m *MockDriverCache) GetDriversBatch(ctx context.Context, driverIDs []string) (map[string]*domain.Driver, []string, error) {
	if m.GetError != nil {
		return nil, nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	found := make(map[string]*domain.Driver)
	var missing []string
	for _, id := range driverIDs {
		if d, ok := m.drivers[id]; ok {
			found[id] = &d
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing, nil
}

func (m *MockDriverCache) SetDriversBatch(ctx context.Context, drivers []*domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range drivers {
		m.drivers[d.ID] = *d
	}
	return nil
}

func (m *MockDriverCache) InvalidateDriver(ctx context.Context, driverID string) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drivers, driverID)
	return nil
}

// Cached reports whether a driver profile is cached (for test assertions).
func (m *MockDriverCache) Cached(driverID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.drivers[driverID]
	return ok
}

// ──────────────────────────────────────────────
// RECORDING PUBLISHER
// ──────────────────────────────────────────────

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []events.Event

	// Error injection
	PublishError error
}

// NewRecordingPublisher creates a new recording publisher.
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

func (p *RecordingPublisher) Publish(ctx context.Context, event events.Event) error {
	if p.PublishError != nil {
		return p.PublishError
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Types returns the published event types in order.
func (p *RecordingPublisher) Types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// Count returns how many events of a type were published.
func (p *RecordingPublisher) Count(t events.Type) int {
	n := 0
	for _, got := range p.Types() {
		if got == t {
			n++
		}
	}
	return n
}

// ──────────────────────────────────────────────
// STUB DISTANCE PROVIDER
// ──────────────────────────────────────────────

// StubDistance returns a fixed distance or a configured error.
type StubDistance struct {
	mu  sync.Mutex
	km  float64
	err error
}

// NewStubDistance creates a provider that always answers km.
func NewStubDistance(km float64) *StubDistance {
	return &StubDistance{km: km}
}

func (s *StubDistance) DistanceKm(ctx context.Context, from, to domain.Point) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.km, s.err
}

// SetDistance changes the distance answered by subsequent calls.
func (s *StubDistance) SetDistance(km float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.km = km
}

// SetError makes subsequent calls fail.
func (s *StubDistance) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockRouting = errors.New("mock: routing service unavailable")
	ErrMockRedis   = errors.New("mock: redis unavailable")
)
