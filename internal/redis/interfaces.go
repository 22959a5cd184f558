package redis

import (
	"context"
	"time"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
)

// StationCacheInterface defines the interface for station caching.
type StationCacheInterface interface {
	GetStation(ctx context.Context, id domain.ID) (*domain.Station, error)
	SetStation(ctx context.Context, station *domain.Station) error
	InvalidateStation(ctx context.Context, id domain.ID) error
}

// LocationStoreInterface defines the interface for station location operations.
type LocationStoreInterface interface {
	AddStation(ctx context.Context, id domain.ID, p geo.Point) error
	FindNearbyStations(ctx context.Context, p geo.Point, radiusKm float64) ([]StationLocation, error)
	RemoveStation(ctx context.Context, id domain.ID) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

// StreamInterface defines the interface for publishing events.
type StreamInterface interface {
	Publish(ctx context.Context, e *domain.Event) error
}

// Ensure concrete types implement interfaces.
var (
	_ StationCacheInterface  = (*CacheStore)(nil)
	_ LocationStoreInterface = (*LocationStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
	_ StreamInterface        = (*StreamStore)(nil)
)
