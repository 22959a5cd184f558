package postgres

import (
	"context"
	"database/sql"

	"fuelanchor/internal/domain"
)

const redemptionColumns = `id, counter, driver, station_id, amount, units, gps_lat, gps_lng, ledger_sequence, vehicle_id, created_at`

// RedemptionRepository is a PostgreSQL implementation of repository.RedemptionRepository.
type RedemptionRepository struct {
	q Querier
}

// NewRedemptionRepository creates a new PostgreSQL redemption repository.
func NewRedemptionRepository(db *sql.DB) *RedemptionRepository {
	return &RedemptionRepository{q: db}
}

// NewRedemptionRepositoryWithTx creates a redemption repository using a transaction.
func NewRedemptionRepositoryWithTx(tx *sql.Tx) *RedemptionRepository {
	return &RedemptionRepository{q: tx}
}

// Create persists a new record.
func (r *RedemptionRepository) Create(ctx context.Context, rec *domain.RedemptionRecord) error {
	query := `INSERT INTO redemptions (` + redemptionColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.ExecContext(ctx, query,
		rec.ID,
		int64(rec.Counter),
		rec.Driver,
		rec.StationID,
		rec.Amount,
		rec.Units,
		rec.GPS.Lat,
		rec.GPS.Lng,
		int64(rec.Sequence),
		rec.VehicleID,
		rec.Timestamp,
	)
	return mapWriteError(err)
}

// GetByID retrieves a record by ID.
func (r *RedemptionRepository) GetByID(ctx context.Context, id domain.ID) (*domain.RedemptionRecord, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE id = $1`
	return scanRedemption(r.q.QueryRowContext(ctx, query, id))
}

// GetByDriver retrieves a driver's records, newest first.
func (r *RedemptionRepository) GetByDriver(ctx context.Context, driver domain.Address, limit int) ([]*domain.RedemptionRecord, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE driver = $1 ORDER BY counter DESC LIMIT $2`
	rows, err := r.q.QueryContext(ctx, query, driver, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.RedemptionRecord
	for rows.Next() {
		rec, err := scanRedemption(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetLastByDriver retrieves the driver's most recent record.
func (r *RedemptionRepository) GetLastByDriver(ctx context.Context, driver domain.Address) (*domain.RedemptionRecord, error) {
	query := `SELECT ` + redemptionColumns + ` FROM redemptions WHERE driver = $1 ORDER BY counter DESC LIMIT 1`
	return scanRedemption(r.q.QueryRowContext(ctx, query, driver))
}

func scanRedemption(row rowScanner) (*domain.RedemptionRecord, error) {
	var rec domain.RedemptionRecord
	var counter, seq int64
	err := row.Scan(
		&rec.ID,
		&counter,
		&rec.Driver,
		&rec.StationID,
		&rec.Amount,
		&rec.Units,
		&rec.GPS.Lat,
		&rec.GPS.Lng,
		&seq,
		&rec.VehicleID,
		&rec.Timestamp,
	)
	if err != nil {
		return nil, mapReadError(err)
	}
	rec.Counter = uint64(counter)
	rec.Sequence = uint64(seq)
	return &rec, nil
}
