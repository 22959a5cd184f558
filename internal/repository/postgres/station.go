package postgres

import (
	"context"
	"database/sql"

	"fuelanchor/internal/domain"
)

const stationColumns = `id, name, owner, center_lat, center_lng, radius_meters, is_active, fuel_price_per_unit, total_redemptions, registered_at`

// StationRepository is a PostgreSQL implementation of repository.StationRepository.
type StationRepository struct {
	q    Querier
	lock bool
}

// NewStationRepository creates a new PostgreSQL station repository.
func NewStationRepository(db *sql.DB) *StationRepository {
	return &StationRepository{q: db}
}

// NewStationRepositoryWithTx creates a station repository using a transaction.
func NewStationRepositoryWithTx(tx *sql.Tx) *StationRepository {
	return &StationRepository{q: tx, lock: true}
}

// Create persists a new station.
func (r *StationRepository) Create(ctx context.Context, s *domain.Station) error {
	query := `INSERT INTO stations (` + stationColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.ExecContext(ctx, query,
		s.ID,
		s.Name,
		s.Owner,
		s.Geofence.Center.Lat,
		s.Geofence.Center.Lng,
		int64(s.Geofence.RadiusMeters),
		s.IsActive,
		s.FuelPricePerUnit,
		int64(s.TotalRedemptions),
		s.RegisteredAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a station by ID.
func (r *StationRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE id = $1` + forUpdate(r.lock)
	return scanStation(r.q.QueryRowContext(ctx, query, id))
}

// GetByOwner retrieves the station registered to owner.
func (r *StationRepository) GetByOwner(ctx context.Context, owner domain.Address) (*domain.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations WHERE owner = $1`
	return scanStation(r.q.QueryRowContext(ctx, query, owner))
}

// GetAll retrieves all stations.
func (r *StationRepository) GetAll(ctx context.Context) ([]*domain.Station, error) {
	query := `SELECT ` + stationColumns + ` FROM stations ORDER BY registered_at, id`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stations []*domain.Station
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, err
		}
		stations = append(stations, s)
	}
	return stations, rows.Err()
}

// Update updates the mutable fields of an existing station.
func (r *StationRepository) Update(ctx context.Context, s *domain.Station) error {
	query := `
		UPDATE stations
		SET name = $1, is_active = $2, fuel_price_per_unit = $3, total_redemptions = $4
		WHERE id = $5
	`
	result, err := r.q.ExecContext(ctx, query,
		s.Name,
		s.IsActive,
		s.FuelPricePerUnit,
		int64(s.TotalRedemptions),
		s.ID,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(row rowScanner) (*domain.Station, error) {
	var s domain.Station
	var radius, total int64
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Owner,
		&s.Geofence.Center.Lat,
		&s.Geofence.Center.Lng,
		&radius,
		&s.IsActive,
		&s.FuelPricePerUnit,
		&total,
		&s.RegisteredAt,
	)
	if err != nil {
		return nil, mapReadError(err)
	}
	s.Geofence.RadiusMeters = uint32(radius)
	s.TotalRedemptions = uint64(total)
	return &s, nil
}
