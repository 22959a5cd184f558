package service

import (
	"context"
	"errors"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/ledger"
	"fuelanchor/internal/logger"
	"fuelanchor/internal/metrics"
	"fuelanchor/internal/redis"
	"fuelanchor/internal/repository"
)

// StationService handles station registration, pricing and lookups.
type StationService struct {
	store         repository.Store
	clock         ledger.Clock
	publisher     *EventPublisher
	cacheStore    redis.StationCacheInterface
	locationStore redis.LocationStoreInterface
}

// NewStationService creates a new StationService. cacheStore and locationStore may be nil.
func NewStationService(
	store repository.Store,
	clock ledger.Clock,
	publisher *EventPublisher,
	cacheStore redis.StationCacheInterface,
	locationStore redis.LocationStoreInterface,
) *StationService {
	return &StationService{
		store:         store,
		clock:         clock,
		publisher:     publisher,
		cacheStore:    cacheStore,
		locationStore: locationStore,
	}
}

// RegisterStationRequest contains the parameters for registering a station.
type RegisterStationRequest struct {
	Actor            domain.Address
	ID               domain.ID
	Name             string
	Owner            domain.Address
	Geofence         domain.Geofence
	FuelPricePerUnit int64
}

// RegisterStation registers an active station. The actor must be the admin or the owner.
func (s *StationService) RegisterStation(ctx context.Context, req RegisterStationRequest) (*domain.Station, error) {
	if req.Owner.IsZero() {
		return nil, ErrInvalidAddress
	}

	station := &domain.Station{
		ID:               req.ID,
		Name:             req.Name,
		Owner:            req.Owner,
		Geofence:         req.Geofence,
		IsActive:         true,
		FuelPricePerUnit: req.FuelPricePerUnit,
		RegisteredAt:     s.clock.Now(),
	}

	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		admin, err := loadAdmin(ctx, repos.Settings)
		if err != nil {
			return err
		}
		if err := requireAny(req.Actor, admin, req.Owner); err != nil {
			return err
		}
		if req.FuelPricePerUnit <= 0 {
			return ErrInvalidAmount
		}
		if !req.Geofence.Center.Valid() {
			return ErrInvalidGeometry
		}

		if err := repos.Stations.Create(ctx, station); err != nil {
			return err
		}
		return batch.record(ctx, repos.Events, domain.EventStationRegistered, req.Actor,
			[]string{station.ID.String()}, map[string]any{"name": station.Name, "owner": station.Owner})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, batch.events)

	if s.locationStore != nil {
		if err := s.locationStore.AddStation(ctx, station.ID, station.Geofence.Center); err != nil {
			logger.L().Warn("station_geo_index_failed", "station", station.ID.String(), "err", err)
		}
	}

	return station, nil
}

// UpdateFuelPrice sets a new price per unit. Owner only.
func (s *StationService) UpdateFuelPrice(ctx context.Context, actor domain.Address, stationID domain.ID, price int64) (*domain.Station, error) {
	var station *domain.Station
	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		var err error
		station, err = repos.Stations.GetByID(ctx, stationID)
		if err != nil {
			return err
		}
		if err := require(actor, station.Owner); err != nil {
			return err
		}
		if price <= 0 {
			return ErrInvalidAmount
		}

		old := station.FuelPricePerUnit
		station.FuelPricePerUnit = price
		if err := repos.Stations.Update(ctx, station); err != nil {
			return err
		}
		return batch.record(ctx, repos.Events, domain.EventPriceUpdated, actor,
			[]string{station.ID.String()}, map[string]any{"old_price": old, "new_price": price})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, batch.events)
	s.invalidate(ctx, stationID)
	return station, nil
}

// DeactivateStation permanently disables a station. The actor must be the admin or the owner.
// Deactivating an inactive station is a no-op.
func (s *StationService) DeactivateStation(ctx context.Context, actor domain.Address, stationID domain.ID) error {
	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		station, err := repos.Stations.GetByID(ctx, stationID)
		if err != nil {
			return err
		}
		admin, err := loadAdmin(ctx, repos.Settings)
		if err != nil && !errors.Is(err, ErrNotInitialized) {
			return err
		}
		if err := requireAny(actor, admin, station.Owner); err != nil {
			return err
		}
		if !station.IsActive {
			return nil
		}

		station.IsActive = false
		if err := repos.Stations.Update(ctx, station); err != nil {
			return err
		}
		return batch.record(ctx, repos.Events, domain.EventStationDeactivated, actor,
			[]string{station.ID.String()}, map[string]any{"actor": actor})
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, batch.events)
	s.invalidate(ctx, stationID)
	if s.locationStore != nil {
		if err := s.locationStore.RemoveStation(ctx, stationID); err != nil {
			logger.L().Warn("station_geo_remove_failed", "station", stationID.String(), "err", err)
		}
	}
	return nil
}

// GetStation retrieves a station by ID, reading through the cache when one is configured.
func (s *StationService) GetStation(ctx context.Context, id domain.ID) (*domain.Station, error) {
	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetStation(ctx, id)
		if err != nil {
			logger.L().Warn("station_cache_get_failed", "station", id.String(), "err", err)
		}
		if cached != nil {
			metrics.StationCacheHitsTotal.Inc()
			return cached, nil
		}
		metrics.StationCacheMissesTotal.Inc()
	}

	station, err := s.store.Repositories().Stations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		if err := s.cacheStore.SetStation(ctx, station); err != nil {
			logger.L().Warn("station_cache_set_failed", "station", id.String(), "err", err)
		}
	}
	return station, nil
}

// GetStationByOwner retrieves the station owned by owner.
func (s *StationService) GetStationByOwner(ctx context.Context, owner domain.Address) (*domain.Station, error) {
	return s.store.Repositories().Stations.GetByOwner(ctx, owner)
}

// ListStations returns every registered station.
func (s *StationService) ListStations(ctx context.Context) ([]*domain.Station, error) {
	return s.store.Repositories().Stations.GetAll(ctx)
}

// NearbyStation is an active station and its distance from the search point.
type NearbyStation struct {
	Station    *domain.Station
	DistanceKm float64
}

// NearbyStations returns active stations whose centers lie within radiusKm of point,
// nearest first. It returns nil when no location index is configured.
func (s *StationService) NearbyStations(ctx context.Context, point geo.Point, radiusKm float64) ([]NearbyStation, error) {
	if s.locationStore == nil {
		return nil, nil
	}
	if !point.Valid() || radiusKm <= 0 {
		return nil, ErrInvalidGeometry
	}

	locations, err := s.locationStore.FindNearbyStations(ctx, point, radiusKm)
	if err != nil {
		return nil, err
	}

	stations := s.store.Repositories().Stations
	result := make([]NearbyStation, 0, len(locations))
	for _, loc := range locations {
		station, err := stations.GetByID(ctx, loc.StationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if !station.IsActive {
			continue
		}
		result = append(result, NearbyStation{Station: station, DistanceKm: loc.DistanceKm})
	}
	return result, nil
}

func (s *StationService) invalidate(ctx context.Context, id domain.ID) {
	if s.cacheStore == nil {
		return
	}
	if err := s.cacheStore.InvalidateStation(ctx, id); err != nil {
		logger.L().Warn("station_cache_invalidate_failed", "station", id.String(), "err", err)
	}
}
