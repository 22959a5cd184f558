package repository

import (
	"context"

	"fuelanchor/internal/domain"
)

// Counter names.
const (
	CounterZones       = "zones"
	CounterCorridors   = "corridors"
	CounterRedemptions = "redemptions"
)

// SettingsRepository stores the admin identity and the global counters.
type SettingsRepository interface {
	// GetAdmin returns the admin address or ErrNotFound before initialization.
	GetAdmin(ctx context.Context) (domain.Address, error)

	// SetAdmin stores the admin address. Returns ErrAlreadyExists if one is set.
	SetAdmin(ctx context.Context, admin domain.Address) error

	// Counter returns the current value of a counter, 0 if never incremented.
	Counter(ctx context.Context, name string) (uint64, error)

	// Increment adds one to a counter and returns the new value.
	Increment(ctx context.Context, name string) (uint64, error)
}

// EventRepository is the append-only event log.
type EventRepository interface {
	// Append stores the event and assigns its Seq.
	Append(ctx context.Context, event *domain.Event) error

	// List returns up to limit events with Seq greater than after, oldest first.
	List(ctx context.Context, after int64, limit int) ([]*domain.Event, error)
}
