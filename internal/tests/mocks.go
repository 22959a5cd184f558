package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/redis"
)

// ──────────────────────────────────────────────
// MOCK STATION CACHE
// ──────────────────────────────────────────────

// MockStationCache is a mock implementation of StationCacheInterface.
type MockStationCache struct {
	mu       sync.RWMutex
	stations map[domain.ID]domain.Station

	// Counters for verification
	GetCallCount        int32
	SetCallCount        int32
	InvalidateCallCount int32

	// Error injection
	GetError        error
	SetError        error
	InvalidateError error
}

// NewMockStationCache creates a new mock station cache.
func NewMockStationCache() *MockStationCache {
	return &MockStationCache{
		stations: make(map[domain.ID]domain.Station),
	}
}

func (m *MockStationCache) GetStation(ctx context.Context, id domain.ID) (*domain.Station, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	station, ok := m.stations[id]
	if !ok {
		return nil, nil // Cache miss.
	}
	return &station, nil
}

func (m *MockStationCache) SetStation(ctx context.Context, station *domain.Station) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stations[station.ID] = *station
	return nil
}

func (m *MockStationCache) InvalidateStation(ctx context.Context, id domain.ID) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	if m.InvalidateError != nil {
		return m.InvalidateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stations, id)
	return nil
}

// IsCached checks if a station is cached.
func (m *MockStationCache) IsCached(id domain.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.stations[id]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of LocationStoreInterface.
type MockLocationStore struct {
	mu        sync.RWMutex
	locations []redis.StationLocation

	// Counters
	AddStationCallCount int32

	// Error injection
	AddStationError         error
	FindNearbyStationsError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{
		locations: make([]redis.StationLocation, 0),
	}
}

func (m *MockLocationStore) AddStation(ctx context.Context, id domain.ID, p geo.Point) error {
	atomic.AddInt32(&m.AddStationCallCount, 1)
	if m.AddStationError != nil {
		return m.AddStationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.StationID == id {
			m.locations[i].Point = p
			return nil
		}
	}
	m.locations = append(m.locations, redis.StationLocation{StationID: id, Point: p})
	return nil
}

func (m *MockLocationStore) FindNearbyStations(ctx context.Context, p geo.Point, radiusKm float64) ([]redis.StationLocation, error) {
	if m.FindNearbyStationsError != nil {
		return nil, m.FindNearbyStationsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]redis.StationLocation, 0, len(m.locations))
	for _, loc := range m.locations {
		km := float64(geo.Distance(p, loc.Point)) / 1000
		if km <= radiusKm {
			loc.DistanceKm = km
			result = append(result, loc)
		}
	}
	return result, nil
}

func (m *MockLocationStore) RemoveStation(ctx context.Context, id domain.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, loc := range m.locations {
		if loc.StationID == id {
			m.locations = append(m.locations[:i], m.locations[i+1:]...)
			return nil
		}
	}
	return nil
}

// HasStation checks if a station position is indexed.
func (m *MockLocationStore) HasStation(id domain.ID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range m.locations {
		if loc.StationID == id {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

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
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, exists := m.locks[name]; exists && time.Now().Before(expiry) {
		return false, nil // Lock still held.
	}
	m.locks[name] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) Release(ctx context.Context, name string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, name)
	return nil
}

// IsLocked checks if a lock is held (for test assertions).
func (m *MockLockStore) IsLocked(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks[name]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK EVENT STREAM
// ──────────────────────────────────────────────

// MockStream is a mock implementation of StreamInterface.
type MockStream struct {
	mu     sync.Mutex
	events []domain.Event

	// Counters
	PublishCallCount int32

	// Error injection
	PublishError error
}

// NewMockStream creates a new mock event stream.
func NewMockStream() *MockStream {
	return &MockStream{}
}

func (m *MockStream) Publish(ctx context.Context, e *domain.Event) error {
	atomic.AddInt32(&m.PublishCallCount, 1)
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *e)
	return nil
}

// Events returns the published events in order.
func (m *MockStream) Events() []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Event, len(m.events))
	copy(out, m.events)
	return out
}

// EventsOfType returns the published events of the given type.
func (m *MockStream) EventsOfType(typ domain.EventType) []domain.Event {
	var out []domain.Event
	for _, e := range m.Events() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// Ensure mocks implement the redis interfaces.
var (
	_ redis.StationCacheInterface  = (*MockStationCache)(nil)
	_ redis.LocationStoreInterface = (*MockLocationStore)(nil)
	_ redis.LockStoreInterface     = (*MockLockStore)(nil)
	_ redis.StreamInterface        = (*MockStream)(nil)
)

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockRedisDown = errors.New("mock: redis unavailable")
	ErrMockTimeout   = errors.New("mock: operation timeout")
)
