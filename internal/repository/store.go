package repository

import "context"

// Repositories groups one repository per entity kind.
type Repositories struct {
	CircularZones CircularZoneRepository
	PolygonZones  PolygonZoneRepository
	Corridors     CorridorRepository
	FleetZones    FleetZoneRepository
	Stations      StationRepository
	Drivers       DriverRepository
	Redemptions   RedemptionRepository
	Settings      SettingsRepository
	Events        EventRepository
}

// Store is the persistence handle passed to every service.
type Store interface {
	// Repositories returns repositories that run outside a transaction.
	Repositories() Repositories

	// RunInTx runs fn against transaction-scoped repositories.
	// The transaction commits if fn returns nil and rolls back otherwise.
	// Rows read inside fn stay locked until the transaction ends.
	RunInTx(ctx context.Context, fn func(repos Repositories) error) error
}
