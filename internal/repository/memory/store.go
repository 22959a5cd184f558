// Package memory is an in-process implementation of repository.Store.
//
// Transactions run against a copy of the whole state under an exclusive lock and
// replace the live state only when they succeed. It backs local development and tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/repository"
)

var _ repository.Store = (*Store)(nil)

type state struct {
	circular       map[domain.ID]domain.CircularZone
	polygons       map[domain.ID]domain.PolygonZone
	corridors      map[domain.ID]domain.Corridor
	fleetZones     map[domain.Address][]domain.ID
	stations       map[domain.ID]domain.Station
	stationByOwner map[domain.Address]domain.ID
	drivers        map[domain.Address]domain.Driver
	redemptions    map[domain.ID]domain.RedemptionRecord
	driverHistory  map[domain.Address][]domain.ID // oldest first
	admin          domain.Address
	counters       map[string]uint64
	events         []domain.Event
}

func newState() *state {
	return &state{
		circular:       make(map[domain.ID]domain.CircularZone),
		polygons:       make(map[domain.ID]domain.PolygonZone),
		corridors:      make(map[domain.ID]domain.Corridor),
		fleetZones:     make(map[domain.Address][]domain.ID),
		stations:       make(map[domain.ID]domain.Station),
		stationByOwner: make(map[domain.Address]domain.ID),
		drivers:        make(map[domain.Address]domain.Driver),
		redemptions:    make(map[domain.ID]domain.RedemptionRecord),
		driverHistory:  make(map[domain.Address][]domain.ID),
		counters:       make(map[string]uint64),
	}
}

// clone copies every map. Stored values are never mutated in place and slices
// are only grown through appendClipped, so a shallow copy is enough.
func (s *state) clone() *state {
	return &state{
		circular:       maps.Clone(s.circular),
		polygons:       maps.Clone(s.polygons),
		corridors:      maps.Clone(s.corridors),
		fleetZones:     maps.Clone(s.fleetZones),
		stations:       maps.Clone(s.stations),
		stationByOwner: maps.Clone(s.stationByOwner),
		drivers:        maps.Clone(s.drivers),
		redemptions:    maps.Clone(s.redemptions),
		driverHistory:  maps.Clone(s.driverHistory),
		admin:          s.admin,
		counters:       maps.Clone(s.counters),
		events:         s.events,
	}
}

// Store is an in-memory repository.Store.
type Store struct {
	mu sync.RWMutex
	st *state

	// appendErr, when set, fails every event append. Used to exercise rollback.
	appendErr error
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{st: newState()}
}

// FailEventAppends makes every subsequent event append return err. Pass nil to clear.
func (s *Store) FailEventAppends(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendErr = err
}

// Repositories returns repositories that lock the store per call.
func (s *Store) Repositories() repository.Repositories {
	return reposFor(view{store: s})
}

// RunInTx runs fn against a private copy of the state and publishes it if fn succeeds.
// Transactions are serialized.
func (s *Store) RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.st.clone()
	if err := fn(reposFor(view{st: next, appendErr: s.appendErr})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.st = next
	return nil
}

// view gives repositories access to either the live state (store set) or a
// transaction's private copy (st set).
type view struct {
	store     *Store
	st        *state
	appendErr error
}

func (v view) read(fn func(st *state) error) error {
	if v.store == nil {
		return fn(v.st)
	}
	v.store.mu.RLock()
	defer v.store.mu.RUnlock()
	return fn(v.store.st)
}

func (v view) write(fn func(st *state) error) error {
	if v.store == nil {
		return fn(v.st)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.st)
}

func (v view) eventAppendErr() error {
	if v.store == nil {
		return v.appendErr
	}
	return v.store.appendErr
}

func reposFor(v view) repository.Repositories {
	return repository.Repositories{
		CircularZones: &circularZoneRepo{v: v},
		PolygonZones:  &polygonZoneRepo{v: v},
		Corridors:     &corridorRepo{v: v},
		FleetZones:    &fleetZoneRepo{v: v},
		Stations:      &stationRepo{v: v},
		Drivers:       &driverRepo{v: v},
		Redemptions:   &redemptionRepo{v: v},
		Settings:      &settingsRepo{v: v},
		Events:        &eventRepo{v: v},
	}
}

// appendClipped appends without writing into a backing array shared with another state.
func appendClipped[T any](s []T, v ...T) []T {
	out := make([]T, 0, len(s)+len(v))
	out = append(out, s...)
	return append(out, v...)
}
