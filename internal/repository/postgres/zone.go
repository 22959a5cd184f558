package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/repository"
)

// CircularZoneRepository is a PostgreSQL implementation of repository.CircularZoneRepository.
type CircularZoneRepository struct {
	q    Querier
	lock bool
}

// NewCircularZoneRepository creates a new PostgreSQL circular zone repository.
func NewCircularZoneRepository(db *sql.DB) *CircularZoneRepository {
	return &CircularZoneRepository{q: db}
}

// NewCircularZoneRepositoryWithTx creates a circular zone repository using a transaction.
func NewCircularZoneRepositoryWithTx(tx *sql.Tx) *CircularZoneRepository {
	return &CircularZoneRepository{q: tx, lock: true}
}

// Create persists a new zone.
func (r *CircularZoneRepository) Create(ctx context.Context, zone *domain.CircularZone) error {
	query := `
		INSERT INTO circular_zones (id, name, center_lat, center_lng, radius_meters, zone_type, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		zone.ID,
		zone.Name,
		zone.Center.Lat,
		zone.Center.Lng,
		int64(zone.RadiusMeters),
		zone.ZoneType,
		zone.IsActive,
		zone.CreatedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a zone by ID.
func (r *CircularZoneRepository) GetByID(ctx context.Context, id domain.ID) (*domain.CircularZone, error) {
	query := `
		SELECT id, name, center_lat, center_lng, radius_meters, zone_type, is_active, created_at
		FROM circular_zones WHERE id = $1` + forUpdate(r.lock)

	var zone domain.CircularZone
	var radius int64
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&zone.ID,
		&zone.Name,
		&zone.Center.Lat,
		&zone.Center.Lng,
		&radius,
		&zone.ZoneType,
		&zone.IsActive,
		&zone.CreatedAt,
	)
	if err != nil {
		return nil, mapReadError(err)
	}
	zone.RadiusMeters = uint32(radius)

	return &zone, nil
}

// Deactivate marks the zone inactive and reports whether it was active.
func (r *CircularZoneRepository) Deactivate(ctx context.Context, id domain.ID) (bool, error) {
	return deactivate(ctx, r.q, "circular_zones", id)
}

// PolygonZoneRepository is a PostgreSQL implementation of repository.PolygonZoneRepository.
type PolygonZoneRepository struct {
	q    Querier
	lock bool
}

// NewPolygonZoneRepository creates a new PostgreSQL polygon zone repository.
func NewPolygonZoneRepository(db *sql.DB) *PolygonZoneRepository {
	return &PolygonZoneRepository{q: db}
}

// NewPolygonZoneRepositoryWithTx creates a polygon zone repository using a transaction.
func NewPolygonZoneRepositoryWithTx(tx *sql.Tx) *PolygonZoneRepository {
	return &PolygonZoneRepository{q: tx, lock: true}
}

// Create persists a new zone.
func (r *PolygonZoneRepository) Create(ctx context.Context, zone *domain.PolygonZone) error {
	query := `
		INSERT INTO polygon_zones (id, name, vertex_lats, vertex_lngs, zone_type, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	lats, lngs := splitPoints(zone.Vertices)
	_, err := r.q.ExecContext(ctx, query,
		zone.ID,
		zone.Name,
		lats,
		lngs,
		zone.ZoneType,
		zone.IsActive,
		zone.CreatedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a zone by ID.
func (r *PolygonZoneRepository) GetByID(ctx context.Context, id domain.ID) (*domain.PolygonZone, error) {
	query := `
		SELECT id, name, vertex_lats, vertex_lngs, zone_type, is_active, created_at
		FROM polygon_zones WHERE id = $1` + forUpdate(r.lock)

	var zone domain.PolygonZone
	var lats, lngs pq.Int64Array
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&zone.ID,
		&zone.Name,
		&lats,
		&lngs,
		&zone.ZoneType,
		&zone.IsActive,
		&zone.CreatedAt,
	)
	if err != nil {
		return nil, mapReadError(err)
	}

	if zone.Vertices, err = joinPoints(lats, lngs); err != nil {
		return nil, err
	}

	return &zone, nil
}

// Deactivate marks the zone inactive and reports whether it was active.
func (r *PolygonZoneRepository) Deactivate(ctx context.Context, id domain.ID) (bool, error) {
	return deactivate(ctx, r.q, "polygon_zones", id)
}

// CorridorRepository is a PostgreSQL implementation of repository.CorridorRepository.
type CorridorRepository struct {
	q    Querier
	lock bool
}

// NewCorridorRepository creates a new PostgreSQL corridor repository.
func NewCorridorRepository(db *sql.DB) *CorridorRepository {
	return &CorridorRepository{q: db}
}

// NewCorridorRepositoryWithTx creates a corridor repository using a transaction.
func NewCorridorRepositoryWithTx(tx *sql.Tx) *CorridorRepository {
	return &CorridorRepository{q: tx, lock: true}
}

// Create persists a new corridor.
func (r *CorridorRepository) Create(ctx context.Context, c *domain.Corridor) error {
	query := `
		INSERT INTO corridors (id, name, start_lat, start_lng, end_lat, end_lng, waypoint_lats, waypoint_lngs, buffer_meters, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	lats, lngs := splitPoints(c.Waypoints)
	_, err := r.q.ExecContext(ctx, query,
		c.ID,
		c.Name,
		c.Start.Lat,
		c.Start.Lng,
		c.End.Lat,
		c.End.Lng,
		lats,
		lngs,
		int64(c.BufferMeters),
		c.IsActive,
		c.CreatedAt,
	)
	return mapWriteError(err)
}

// GetByID retrieves a corridor by ID.
func (r *CorridorRepository) GetByID(ctx context.Context, id domain.ID) (*domain.Corridor, error) {
	query := `
		SELECT id, name, start_lat, start_lng, end_lat, end_lng, waypoint_lats, waypoint_lngs, buffer_meters, is_active, created_at
		FROM corridors WHERE id = $1` + forUpdate(r.lock)

	var c domain.Corridor
	var lats, lngs pq.Int64Array
	var buffer int64
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Start.Lat,
		&c.Start.Lng,
		&c.End.Lat,
		&c.End.Lng,
		&lats,
		&lngs,
		&buffer,
		&c.IsActive,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, mapReadError(err)
	}
	c.BufferMeters = uint32(buffer)

	if c.Waypoints, err = joinPoints(lats, lngs); err != nil {
		return nil, err
	}

	return &c, nil
}

// Deactivate marks the corridor inactive and reports whether it was active.
func (r *CorridorRepository) Deactivate(ctx context.Context, id domain.ID) (bool, error) {
	return deactivate(ctx, r.q, "corridors", id)
}

// deactivate flips is_active for one row of table. Only active rows match,
// so the affected row count tells whether the state changed.
func deactivate(ctx context.Context, q Querier, table string, id domain.ID) (bool, error) {
	result, err := q.ExecContext(ctx, `UPDATE `+table+` SET is_active = FALSE WHERE id = $1 AND is_active`, id)
	if err != nil {
		return false, err
	}

	if err := checkAffected(result); err != nil {
		if err == repository.ErrNotFound {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

// FleetZoneRepository is a PostgreSQL implementation of repository.FleetZoneRepository.
type FleetZoneRepository struct {
	q Querier
}

// NewFleetZoneRepository creates a new PostgreSQL fleet zone repository.
func NewFleetZoneRepository(db *sql.DB) *FleetZoneRepository {
	return &FleetZoneRepository{q: db}
}

// NewFleetZoneRepositoryWithTx creates a fleet zone repository using a transaction.
func NewFleetZoneRepositoryWithTx(tx *sql.Tx) *FleetZoneRepository {
	return &FleetZoneRepository{q: tx}
}

// Set replaces the operator's assigned zones.
func (r *FleetZoneRepository) Set(ctx context.Context, zones *domain.FleetZones) error {
	query := `
		INSERT INTO fleet_zones (operator, zone_ids) VALUES ($1, $2)
		ON CONFLICT (operator) DO UPDATE SET zone_ids = EXCLUDED.zone_ids
	`
	_, err := r.q.ExecContext(ctx, query, zones.Operator, idsToArray(zones.ZoneIDs))
	return err
}

// Get returns the operator's zones, or an empty assignment if none were set.
func (r *FleetZoneRepository) Get(ctx context.Context, operator domain.Address) (*domain.FleetZones, error) {
	query := `SELECT zone_ids FROM fleet_zones WHERE operator = $1`

	var arr pq.ByteaArray
	err := r.q.QueryRowContext(ctx, query, operator).Scan(&arr)
	if err != nil {
		if mapReadError(err) == repository.ErrNotFound {
			return &domain.FleetZones{Operator: operator}, nil
		}
		return nil, err
	}

	ids, err := arrayToIDs(arr)
	if err != nil {
		return nil, err
	}

	return &domain.FleetZones{Operator: operator, ZoneIDs: ids}, nil
}
