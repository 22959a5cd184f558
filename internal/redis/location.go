package redis

import (
	"context"

	"github.com/redis/go-redis/v9"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
)

const stationLocationKey = "stations:locations"

// StationLocation is a station's indexed position.
type StationLocation struct {
	StationID  domain.ID
	Point      geo.Point
	DistanceKm float64
}

// LocationStore indexes station positions with Redis GEO commands.
// The index serves discovery only; geofence checks use the integer geometry.
type LocationStore struct {
	client *redis.Client
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client}
}

// AddStation stores a station's position using GEOADD.
func (s *LocationStore) AddStation(ctx context.Context, id domain.ID, p geo.Point) error {
	return s.client.GeoAdd(ctx, stationLocationKey, &redis.GeoLocation{
		Name:      id.String(),
		Longitude: toDegrees(p.Lng),
		Latitude:  toDegrees(p.Lat),
	}).Err()
}

// FindNearbyStations returns stations within radiusKm of p, nearest first.
func (s *LocationStore) FindNearbyStations(ctx context.Context, p geo.Point, radiusKm float64) ([]StationLocation, error) {
	results, err := s.client.GeoRadius(ctx, stationLocationKey, toDegrees(p.Lng), toDegrees(p.Lat), &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}

	locations := make([]StationLocation, 0, len(results))
	for _, r := range results {
		id, err := domain.ParseID(r.Name)
		if err != nil {
			continue // Foreign member
		}
		locations = append(locations, StationLocation{
			StationID:  id,
			Point:      geo.Point{Lat: toMicroDegrees(r.Latitude), Lng: toMicroDegrees(r.Longitude)},
			DistanceKm: r.Dist,
		})
	}

	return locations, nil
}

// RemoveStation removes a station from the geo index.
func (s *LocationStore) RemoveStation(ctx context.Context, id domain.ID) error {
	return s.client.ZRem(ctx, stationLocationKey, id.String()).Err()
}

func toDegrees(micro int64) float64 {
	return float64(micro) / geo.MicroDegrees
}

func toMicroDegrees(deg float64) int64 {
	return int64(deg * geo.MicroDegrees)
}
