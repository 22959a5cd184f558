package postgres

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"fuelanchor/internal/domain"
)

const driverColumns = `address, fleet_operator, vehicle_id, max_per_transaction, daily_limit, weekly_limit, allowed_stations,
	daily_spent, weekly_spent, last_daily_reset, last_weekly_reset, is_active, total_redemptions, registered_at`

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q    Querier
	lock bool
}

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx, lock: true}
}

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, d *domain.Driver) error {
	query := `INSERT INTO drivers (` + driverColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.ExecContext(ctx, query,
		d.Address,
		d.FleetOperator,
		d.VehicleID,
		d.Limits.MaxPerTransaction,
		d.Limits.DailyLimit,
		d.Limits.WeeklyLimit,
		idsToArray(d.Limits.AllowedStations),
		d.DailySpent,
		d.WeeklySpent,
		int64(d.LastDailyReset),
		int64(d.LastWeeklyReset),
		d.IsActive,
		int64(d.TotalRedemptions),
		d.RegisteredAt,
	)
	return mapWriteError(err)
}

// GetByAddress retrieves a driver by address.
func (r *DriverRepository) GetByAddress(ctx context.Context, address domain.Address) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE address = $1` + forUpdate(r.lock)
	return scanDriver(r.q.QueryRowContext(ctx, query, address))
}

// GetByFleet retrieves all drivers registered by a fleet operator.
func (r *DriverRepository) GetByFleet(ctx context.Context, operator domain.Address) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE fleet_operator = $1 ORDER BY registered_at, address`
	rows, err := r.q.QueryContext(ctx, query, operator)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}
	return drivers, rows.Err()
}

// Update updates an existing driver.
func (r *DriverRepository) Update(ctx context.Context, d *domain.Driver) error {
	query := `
		UPDATE drivers
		SET vehicle_id = $1, max_per_transaction = $2, daily_limit = $3, weekly_limit = $4, allowed_stations = $5,
			daily_spent = $6, weekly_spent = $7, last_daily_reset = $8, last_weekly_reset = $9,
			is_active = $10, total_redemptions = $11
		WHERE address = $12
	`
	result, err := r.q.ExecContext(ctx, query,
		d.VehicleID,
		d.Limits.MaxPerTransaction,
		d.Limits.DailyLimit,
		d.Limits.WeeklyLimit,
		idsToArray(d.Limits.AllowedStations),
		d.DailySpent,
		d.WeeklySpent,
		int64(d.LastDailyReset),
		int64(d.LastWeeklyReset),
		d.IsActive,
		int64(d.TotalRedemptions),
		d.Address,
	)
	if err != nil {
		return err
	}
	return checkAffected(result)
}

func scanDriver(row rowScanner) (*domain.Driver, error) {
	var d domain.Driver
	var allowed pq.ByteaArray
	var lastDaily, lastWeekly, total int64
	err := row.Scan(
		&d.Address,
		&d.FleetOperator,
		&d.VehicleID,
		&d.Limits.MaxPerTransaction,
		&d.Limits.DailyLimit,
		&d.Limits.WeeklyLimit,
		&allowed,
		&d.DailySpent,
		&d.WeeklySpent,
		&lastDaily,
		&lastWeekly,
		&d.IsActive,
		&total,
		&d.RegisteredAt,
	)
	if err != nil {
		return nil, mapReadError(err)
	}

	if d.Limits.AllowedStations, err = arrayToIDs(allowed); err != nil {
		return nil, err
	}
	d.LastDailyReset = uint64(lastDaily)
	d.LastWeeklyReset = uint64(lastWeekly)
	d.TotalRedemptions = uint64(total)

	return &d, nil
}
