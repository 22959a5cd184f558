package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
)

// StationCacheTTL bounds how long a station snapshot is served from cache.
// Redemptions always read the station from the store.
const StationCacheTTL = 30 * time.Second

const stationCachePrefix = "cache:station:"

// CacheStore handles station caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// CachedStation represents a cached station entity.
type CachedStation struct {
	ID               domain.ID      `json:"id"`
	Name             string         `json:"name"`
	Owner            domain.Address `json:"owner"`
	Center           geo.Point      `json:"center"`
	RadiusMeters     uint32         `json:"radius_meters"`
	IsActive         bool           `json:"is_active"`
	FuelPricePerUnit int64          `json:"fuel_price_per_unit"`
	TotalRedemptions uint64         `json:"total_redemptions"`
	RegisteredAt     time.Time      `json:"registered_at"`
}

// NewCachedStation converts a station to its cached form.
func NewCachedStation(s *domain.Station) *CachedStation {
	return &CachedStation{
		ID:               s.ID,
		Name:             s.Name,
		Owner:            s.Owner,
		Center:           s.Geofence.Center,
		RadiusMeters:     s.Geofence.RadiusMeters,
		IsActive:         s.IsActive,
		FuelPricePerUnit: s.FuelPricePerUnit,
		TotalRedemptions: s.TotalRedemptions,
		RegisteredAt:     s.RegisteredAt,
	}
}

// Station converts the cached form back to a station.
func (c *CachedStation) Station() *domain.Station {
	return &domain.Station{
		ID:               c.ID,
		Name:             c.Name,
		Owner:            c.Owner,
		Geofence:         domain.Geofence{Center: c.Center, RadiusMeters: c.RadiusMeters},
		IsActive:         c.IsActive,
		FuelPricePerUnit: c.FuelPricePerUnit,
		TotalRedemptions: c.TotalRedemptions,
		RegisteredAt:     c.RegisteredAt,
	}
}

// GetStation retrieves a station from cache. Returns nil on a cache miss.
func (s *CacheStore) GetStation(ctx context.Context, id domain.ID) (*domain.Station, error) {
	data, err := s.client.Get(ctx, stationCachePrefix+id.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var cached CachedStation
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, err
	}
	return cached.Station(), nil
}

// SetStation stores a station in cache.
func (s *CacheStore) SetStation(ctx context.Context, station *domain.Station) error {
	data, err := json.Marshal(NewCachedStation(station))
	if err != nil {
		return err
	}
	return s.client.Set(ctx, stationCachePrefix+station.ID.String(), data, StationCacheTTL).Err()
}

// InvalidateStation removes a station from cache.
func (s *CacheStore) InvalidateStation(ctx context.Context, id domain.ID) error {
	return s.client.Del(ctx, stationCachePrefix+id.String()).Err()
}
