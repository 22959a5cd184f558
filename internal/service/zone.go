package service

import (
	"context"
	"errors"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/ledger"
	"fuelanchor/internal/metrics"
	"fuelanchor/internal/repository"
)

// ZoneService handles circular zones, polygon zones, corridors and fleet zone assignment.
type ZoneService struct {
	store     repository.Store
	clock     ledger.Clock
	publisher *EventPublisher
}

// NewZoneService creates a new ZoneService.
func NewZoneService(store repository.Store, clock ledger.Clock, publisher *EventPublisher) *ZoneService {
	return &ZoneService{
		store:     store,
		clock:     clock,
		publisher: publisher,
	}
}

// CreateCircularZoneRequest contains the parameters for creating a circular zone.
type CreateCircularZoneRequest struct {
	Actor        domain.Address
	ID           domain.ID
	Name         string
	Center       geo.Point
	RadiusMeters uint32
	ZoneType     domain.ZoneType
}

// CreateCircularZone creates an active circular zone. Admin only.
func (s *ZoneService) CreateCircularZone(ctx context.Context, req CreateCircularZoneRequest) (*domain.CircularZone, error) {
	zone := &domain.CircularZone{
		ID:           req.ID,
		Name:         req.Name,
		Center:       req.Center,
		RadiusMeters: req.RadiusMeters,
		ZoneType:     req.ZoneType,
		IsActive:     true,
		CreatedAt:    s.clock.Now(),
	}

	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := requireAdmin(ctx, repos.Settings, req.Actor); err != nil {
			return err
		}
		if !req.ZoneType.Valid() {
			return ErrInvalidZoneType
		}
		if !req.Center.Valid() {
			return ErrInvalidGeometry
		}
		if err := zoneIDAvailable(ctx, repos, req.ID); err != nil {
			return err
		}

		if err := repos.CircularZones.Create(ctx, zone); err != nil {
			return err
		}
		if _, err := repos.Settings.Increment(ctx, repository.CounterZones); err != nil {
			return err
		}
		return batch.record(ctx, repos.Events, domain.EventZoneCreated, req.Actor,
			[]string{zone.ID.String()}, map[string]any{"name": zone.Name})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, batch.events)
	return zone, nil
}

// CreatePolygonZoneRequest contains the parameters for creating a polygon zone.
type CreatePolygonZoneRequest struct {
	Actor    domain.Address
	ID       domain.ID
	Name     string
	Vertices []geo.Point
	ZoneType domain.ZoneType
}

// CreatePolygonZone creates an active polygon zone. Admin only.
// At least three vertices are required.
func (s *ZoneService) CreatePolygonZone(ctx context.Context, req CreatePolygonZoneRequest) (*domain.PolygonZone, error) {
	zone := &domain.PolygonZone{
		ID:        req.ID,
		Name:      req.Name,
		Vertices:  req.Vertices,
		ZoneType:  req.ZoneType,
		IsActive:  true,
		CreatedAt: s.clock.Now(),
	}

	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := requireAdmin(ctx, repos.Settings, req.Actor); err != nil {
			return err
		}
		if !req.ZoneType.Valid() {
			return ErrInvalidZoneType
		}
		if len(req.Vertices) < domain.MinPolygonVertices || !allValid(req.Vertices) {
			return ErrInvalidGeometry
		}
		if err := zoneIDAvailable(ctx, repos, req.ID); err != nil {
			return err
		}

		if err := repos.PolygonZones.Create(ctx, zone); err != nil {
			return err
		}
		if _, err := repos.Settings.Increment(ctx, repository.CounterZones); err != nil {
			return err
		}
		return batch.record(ctx, repos.Events, domain.EventPolygonZoneCreated, req.Actor,
			[]string{zone.ID.String()}, map[string]any{"name": zone.Name, "vertices": len(zone.Vertices)})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, batch.events)
	return zone, nil
}

// CreateCorridorRequest contains the parameters for creating a corridor.
type CreateCorridorRequest struct {
	Actor        domain.Address
	ID           domain.ID
	Name         string
	Start        geo.Point
	End          geo.Point
	Waypoints    []geo.Point
	BufferMeters uint32
}

// CreateCorridor creates an active corridor. Admin only.
func (s *ZoneService) CreateCorridor(ctx context.Context, req CreateCorridorRequest) (*domain.Corridor, error) {
	corridor := &domain.Corridor{
		ID:           req.ID,
		Name:         req.Name,
		Start:        req.Start,
		End:          req.End,
		Waypoints:    req.Waypoints,
		BufferMeters: req.BufferMeters,
		IsActive:     true,
		CreatedAt:    s.clock.Now(),
	}

	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := requireAdmin(ctx, repos.Settings, req.Actor); err != nil {
			return err
		}
		if !allValid(corridor.Path()) {
			return ErrInvalidGeometry
		}

		if err := repos.Corridors.Create(ctx, corridor); err != nil {
			return err
		}
		if _, err := repos.Settings.Increment(ctx, repository.CounterCorridors); err != nil {
			return err
		}
		return batch.record(ctx, repos.Events, domain.EventCorridorCreated, req.Actor,
			[]string{corridor.ID.String()}, map[string]any{"name": corridor.Name})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, batch.events)
	return corridor, nil
}

// ValidateCircular checks point against a circular zone. An inactive zone is
// reported invalid with zero distance.
func (s *ZoneService) ValidateCircular(ctx context.Context, zoneID domain.ID, point geo.Point) (*domain.ValidationResult, error) {
	if !point.Valid() {
		return nil, ErrInvalidGeometry
	}

	zone, err := s.store.Repositories().CircularZones.GetByID(ctx, zoneID)
	if err != nil {
		return nil, err
	}

	result := &domain.ValidationResult{
		ZoneID:      zone.ID,
		ZoneName:    zone.Name,
		ValidatedAt: s.clock.Now(),
	}
	if zone.IsActive {
		result.DistanceFromCenter = geo.Distance(point, zone.Center)
		result.IsValid = result.DistanceFromCenter <= zone.RadiusMeters
	}

	observeValidation("circular", result.IsValid)
	return result, nil
}

// ValidateCorridor reports whether point lies within the corridor's buffer of
// its nearest segment. An inactive corridor validates nothing.
func (s *ZoneService) ValidateCorridor(ctx context.Context, corridorID domain.ID, point geo.Point) (bool, error) {
	if !point.Valid() {
		return false, ErrInvalidGeometry
	}

	corridor, err := s.store.Repositories().Corridors.GetByID(ctx, corridorID)
	if err != nil {
		return false, err
	}

	valid := corridor.IsActive && geo.PathDistance(point, corridor.Path()) <= corridor.BufferMeters

	observeValidation("corridor", valid)
	return valid, nil
}

// ValidatePolygon reports whether point lies inside the polygon zone.
// An inactive zone validates nothing.
func (s *ZoneService) ValidatePolygon(ctx context.Context, zoneID domain.ID, point geo.Point) (bool, error) {
	if !point.Valid() {
		return false, ErrInvalidGeometry
	}

	zone, err := s.store.Repositories().PolygonZones.GetByID(ctx, zoneID)
	if err != nil {
		return false, err
	}

	valid := zone.IsActive && geo.PointInPolygon(point, zone.Vertices)

	observeValidation("polygon", valid)
	return valid, nil
}

// DeactivateZone deactivates a circular or polygon zone. Admin only.
// Deactivating an inactive or unknown zone is a no-op.
func (s *ZoneService) DeactivateZone(ctx context.Context, actor domain.Address, zoneID domain.ID) error {
	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := requireAdmin(ctx, repos.Settings, actor); err != nil {
			return err
		}

		changed, err := repos.CircularZones.Deactivate(ctx, zoneID)
		if err != nil {
			return err
		}
		if !changed {
			if changed, err = repos.PolygonZones.Deactivate(ctx, zoneID); err != nil {
				return err
			}
		}
		if !changed {
			return nil
		}

		return batch.record(ctx, repos.Events, domain.EventZoneDeactivated, actor,
			[]string{zoneID.String()}, map[string]any{"actor": actor})
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, batch.events)
	return nil
}

// DeactivateCorridor deactivates a corridor. Admin only.
// Deactivating an inactive or unknown corridor is a no-op.
func (s *ZoneService) DeactivateCorridor(ctx context.Context, actor domain.Address, corridorID domain.ID) error {
	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := requireAdmin(ctx, repos.Settings, actor); err != nil {
			return err
		}

		changed, err := repos.Corridors.Deactivate(ctx, corridorID)
		if err != nil || !changed {
			return err
		}

		return batch.record(ctx, repos.Events, domain.EventCorridorDeactivated, actor,
			[]string{corridorID.String()}, map[string]any{"actor": actor})
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, batch.events)
	return nil
}

// GetCircularZone retrieves a circular zone by ID.
func (s *ZoneService) GetCircularZone(ctx context.Context, id domain.ID) (*domain.CircularZone, error) {
	return s.store.Repositories().CircularZones.GetByID(ctx, id)
}

// GetPolygonZone retrieves a polygon zone by ID.
func (s *ZoneService) GetPolygonZone(ctx context.Context, id domain.ID) (*domain.PolygonZone, error) {
	return s.store.Repositories().PolygonZones.GetByID(ctx, id)
}

// GetCorridor retrieves a corridor by ID.
func (s *ZoneService) GetCorridor(ctx context.Context, id domain.ID) (*domain.Corridor, error) {
	return s.store.Repositories().Corridors.GetByID(ctx, id)
}

// Counts returns the number of zones and corridors ever created.
func (s *ZoneService) Counts(ctx context.Context) (zones, corridors uint64, err error) {
	settings := s.store.Repositories().Settings
	if zones, err = settings.Counter(ctx, repository.CounterZones); err != nil {
		return 0, 0, err
	}
	if corridors, err = settings.Counter(ctx, repository.CounterCorridors); err != nil {
		return 0, 0, err
	}
	return zones, corridors, nil
}

// AssignFleetZones replaces the circular zones a fleet operator may operate in. Admin only.
func (s *ZoneService) AssignFleetZones(ctx context.Context, actor, operator domain.Address, zoneIDs []domain.ID) error {
	if operator.IsZero() {
		return ErrInvalidAddress
	}

	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := requireAdmin(ctx, repos.Settings, actor); err != nil {
			return err
		}
		for _, id := range zoneIDs {
			if _, err := repos.CircularZones.GetByID(ctx, id); err != nil {
				return err
			}
		}

		if err := repos.FleetZones.Set(ctx, &domain.FleetZones{Operator: operator, ZoneIDs: zoneIDs}); err != nil {
			return err
		}
		return batch.record(ctx, repos.Events, domain.EventFleetZonesAssigned, actor,
			[]string{string(operator)}, map[string]any{"zones": len(zoneIDs)})
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, batch.events)
	return nil
}

// ValidateFleetLocation reports whether point lies in any circular zone assigned to
// operator. Operators without assigned zones are unrestricted.
func (s *ZoneService) ValidateFleetLocation(ctx context.Context, operator domain.Address, point geo.Point) (bool, error) {
	if !point.Valid() {
		return false, ErrInvalidGeometry
	}

	repos := s.store.Repositories()

	assigned, err := repos.FleetZones.Get(ctx, operator)
	if err != nil {
		return false, err
	}
	if len(assigned.ZoneIDs) == 0 {
		return true, nil
	}

	for _, id := range assigned.ZoneIDs {
		zone, err := repos.CircularZones.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return false, err
		}
		if geo.Distance(zone.Center, point) <= zone.RadiusMeters {
			observeValidation("fleet", true)
			return true, nil
		}
	}

	observeValidation("fleet", false)
	return false, nil
}

// zoneIDAvailable rejects ids already used by a circular or polygon zone.
func zoneIDAvailable(ctx context.Context, repos repository.Repositories, id domain.ID) error {
	if _, err := repos.CircularZones.GetByID(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		if err == nil {
			return repository.ErrAlreadyExists
		}
		return err
	}
	if _, err := repos.PolygonZones.GetByID(ctx, id); !errors.Is(err, repository.ErrNotFound) {
		if err == nil {
			return repository.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func allValid(points []geo.Point) bool {
	for _, p := range points {
		if !p.Valid() {
			return false
		}
	}
	return true
}

func observeValidation(kind string, valid bool) {
	result := "invalid"
	if valid {
		result = "valid"
	}
	metrics.ZoneValidationsTotal.WithLabelValues(kind, result).Inc()
}
