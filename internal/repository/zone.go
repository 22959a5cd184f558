package repository

import (
	"context"

	"fuelanchor/internal/domain"
)

// CircularZoneRepository defines the persistence operations for circular zones.
type CircularZoneRepository interface {
	// Create persists a new zone. Returns ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, zone *domain.CircularZone) error

	// GetByID retrieves a zone by ID.
	GetByID(ctx context.Context, id domain.ID) (*domain.CircularZone, error)

	// Deactivate marks the zone inactive and reports whether it was active.
	// A missing zone is not an error.
	Deactivate(ctx context.Context, id domain.ID) (bool, error)
}

// PolygonZoneRepository defines the persistence operations for polygon zones.
type PolygonZoneRepository interface {
	Create(ctx context.Context, zone *domain.PolygonZone) error
	GetByID(ctx context.Context, id domain.ID) (*domain.PolygonZone, error)
	Deactivate(ctx context.Context, id domain.ID) (bool, error)
}

// CorridorRepository defines the persistence operations for corridors.
type CorridorRepository interface {
	Create(ctx context.Context, corridor *domain.Corridor) error
	GetByID(ctx context.Context, id domain.ID) (*domain.Corridor, error)
	Deactivate(ctx context.Context, id domain.ID) (bool, error)
}

// FleetZoneRepository stores the zones assigned to each fleet operator.
type FleetZoneRepository interface {
	// Set replaces the operator's assigned zones.
	Set(ctx context.Context, zones *domain.FleetZones) error

	// Get returns the operator's zones, or an empty assignment if none were set.
	Get(ctx context.Context, operator domain.Address) (*domain.FleetZones, error)
}
