package repository

import (
	"context"

	"fuelanchor/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver. Returns ErrAlreadyExists if the address is registered.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByAddress retrieves a driver by address.
	GetByAddress(ctx context.Context, address domain.Address) (*domain.Driver, error)

	// GetByFleet retrieves all drivers registered by a fleet operator.
	GetByFleet(ctx context.Context, operator domain.Address) ([]*domain.Driver, error)

	// Update updates an existing driver.
	Update(ctx context.Context, driver *domain.Driver) error
}
