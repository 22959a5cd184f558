package repository

import (
	"context"

	"fuelanchor/internal/domain"
)

// StationRepository defines the persistence operations for stations.
type StationRepository interface {
	// Create persists a new station and its owner mapping.
	// Returns ErrAlreadyExists if the id or the owner is taken.
	Create(ctx context.Context, station *domain.Station) error

	// GetByID retrieves a station by ID.
	GetByID(ctx context.Context, id domain.ID) (*domain.Station, error)

	// GetByOwner retrieves the station registered to owner.
	GetByOwner(ctx context.Context, owner domain.Address) (*domain.Station, error)

	// GetAll retrieves all stations.
	GetAll(ctx context.Context) ([]*domain.Station, error)

	// Update updates the mutable fields of an existing station.
	Update(ctx context.Context, station *domain.Station) error
}
