// Package memory is an in-process implementation of the repository contracts.
// Transactions run against a private copy of the data that replaces the
// shared copy on commit, so a failed unit of work leaves no trace.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"ridehail/internal/domain"
	"ridehail/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type state struct {
	users      map[string]domain.User
	riders     map[string]domain.Rider
	drivers    map[string]domain.Driver
	requests   map[string]domain.RideRequest
	rides      map[string]domain.Ride
	payments   map[string]domain.Payment
	wallets    map[string]domain.Wallet
	walletTxns []domain.WalletTransaction
	ratings    []domain.Rating

	// seq records insertion order so listings stay stable when timestamps tie.
	seq     map[string]uint64
	nextSeq uint64
}

func newState() *state {
	return &state{
		users:    make(map[string]domain.User),
		riders:   make(map[string]domain.Rider),
		drivers:  make(map[string]domain.Driver),
		requests: make(map[string]domain.RideRequest),
		rides:    make(map[string]domain.Ride),
		payments: make(map[string]domain.Payment),
		wallets:  make(map[string]domain.Wallet),
		seq:      make(map[string]uint64),
	}
}

func (s *state) clone() *state {
	users := make(map[string]domain.User, len(s.users))
	for id, u := range s.users {
		u.Roles = slices.Clone(u.Roles)
		users[id] = u
	}
	return &state{
		users:      users,
		riders:     maps.Clone(s.riders),
		drivers:    maps.Clone(s.drivers),
		requests:   maps.Clone(s.requests),
		rides:      maps.Clone(s.rides),
		payments:   maps.Clone(s.payments),
		wallets:    maps.Clone(s.wallets),
		walletTxns: slices.Clone(s.walletTxns),
		ratings:    slices.Clone(s.ratings),
		seq:        maps.Clone(s.seq),
		nextSeq:    s.nextSeq,
	}
}

func (s *state) track(id string) {
	s.nextSeq++
	s.seq[id] = s.nextSeq
}

// Store keeps all entities in memory behind a single mutex.
type Store struct {
	mu    sync.Mutex
	state *state
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{state: newState()}
}

// Repos returns repositories that lock the store per call.
func (s *Store) Repos() repository.Repositories {
	return newRepositories(&view{store: s})
}

// WithinTx runs fn against a private copy of the data and publishes the copy
// only if fn succeeds. Units of work are serialized. Repositories obtained
// from Repos must not be used inside fn.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.state.clone()
	if err := fn(ctx, newRepositories(&view{tx: work})); err != nil {
		return err
	}

	s.state = work
	return nil
}

// view resolves the data a repository call operates on.
type view struct {
	store *Store
	tx    *state
}

// do runs fn on the transaction copy, or on the shared data under the lock.
// Repository methods validate before mutating so a failed call changes nothing.
func (v *view) do(fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

func newRepositories(v *view) repository.Repositories {
	return repository.Repositories{
		Users:              &userRepository{v: v},
		Riders:             &riderRepository{v: v},
		Drivers:            &driverRepository{v: v},
		RideRequests:       &rideRequestRepository{v: v},
		Rides:              &rideRepository{v: v},
		Payments:           &paymentRepository{v: v},
		Wallets:            &walletRepository{v: v},
		WalletTransactions: &walletTransactionRepository{v: v},
		Ratings:            &ratingRepository{v: v},
	}
}

// window applies a normalized page to an already ordered slice.
func window[T any](items []T, page repository.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return nil
	}
	end := min(page.Offset+page.Limit, len(items))
	return items[page.Offset:end]
}
