package repository

import (
	"context"

	"fuelanchor/internal/domain"
)

// RedemptionRepository defines the persistence operations for redemption records.
// Records are append-only.
type RedemptionRepository interface {
	// Create persists a new record.
	Create(ctx context.Context, record *domain.RedemptionRecord) error

	// GetByID retrieves a record by ID.
	GetByID(ctx context.Context, id domain.ID) (*domain.RedemptionRecord, error)

	// GetByDriver retrieves a driver's records, newest first.
	GetByDriver(ctx context.Context, driver domain.Address, limit int) ([]*domain.RedemptionRecord, error)

	// GetLastByDriver retrieves the driver's most recent record.
	GetLastByDriver(ctx context.Context, driver domain.Address) (*domain.RedemptionRecord, error)
}
