package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier          = (*sql.DB)(nil)
	_ Querier          = (*sql.Tx)(nil)
	_ repository.Store = (*Store)(nil)
)

const uniqueViolation = "23505"

// Store is a PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
}

// NewStore creates a new PostgreSQL store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Repositories returns repositories bound to the connection pool.
func (s *Store) Repositories() repository.Repositories {
	return repository.Repositories{
		CircularZones: NewCircularZoneRepository(s.db),
		PolygonZones:  NewPolygonZoneRepository(s.db),
		Corridors:     NewCorridorRepository(s.db),
		FleetZones:    NewFleetZoneRepository(s.db),
		Stations:      NewStationRepository(s.db),
		Drivers:       NewDriverRepository(s.db),
		Redemptions:   NewRedemptionRepository(s.db),
		Settings:      NewSettingsRepository(s.db),
		Events:        NewEventRepository(s.db),
	}
}

// RunInTx runs fn inside a transaction with row-locking repositories.
func (s *Store) RunInTx(ctx context.Context, fn func(repos repository.Repositories) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Create transaction-scoped repositories.
	repos := repository.Repositories{
		CircularZones: NewCircularZoneRepositoryWithTx(tx),
		PolygonZones:  NewPolygonZoneRepositoryWithTx(tx),
		Corridors:     NewCorridorRepositoryWithTx(tx),
		FleetZones:    NewFleetZoneRepositoryWithTx(tx),
		Stations:      NewStationRepositoryWithTx(tx),
		Drivers:       NewDriverRepositoryWithTx(tx),
		Redemptions:   NewRedemptionRepositoryWithTx(tx),
		Settings:      NewSettingsRepositoryWithTx(tx),
		Events:        NewEventRepositoryWithTx(tx),
	}

	if err = fn(repos); err != nil {
		return err
	}

	return tx.Commit()
}

// forUpdate returns the locking clause for reads made inside a transaction.
func forUpdate(lock bool) string {
	if lock {
		return " FOR UPDATE"
	}
	return ""
}

// mapWriteError converts unique violations to repository.ErrAlreadyExists.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrAlreadyExists
	}
	return err
}

// mapReadError converts sql.ErrNoRows to repository.ErrNotFound.
func mapReadError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

// checkAffected returns repository.ErrNotFound when no row was changed.
func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func splitPoints(points []geo.Point) (pq.Int64Array, pq.Int64Array) {
	lats := make(pq.Int64Array, len(points))
	lngs := make(pq.Int64Array, len(points))
	for i, p := range points {
		lats[i] = p.Lat
		lngs[i] = p.Lng
	}
	return lats, lngs
}

func joinPoints(lats, lngs pq.Int64Array) ([]geo.Point, error) {
	if len(lats) != len(lngs) {
		return nil, errors.New("postgres: coordinate arrays differ in length")
	}
	points := make([]geo.Point, len(lats))
	for i := range lats {
		points[i] = geo.Point{Lat: lats[i], Lng: lngs[i]}
	}
	return points, nil
}

func idsToArray(ids []domain.ID) pq.ByteaArray {
	arr := make(pq.ByteaArray, len(ids))
	for i, id := range ids {
		arr[i] = append([]byte(nil), id[:]...)
	}
	return arr
}

func arrayToIDs(arr pq.ByteaArray) ([]domain.ID, error) {
	if len(arr) == 0 {
		return nil, nil
	}
	ids := make([]domain.ID, len(arr))
	for i, b := range arr {
		if err := ids[i].Scan(b); err != nil {
			return nil, err
		}
	}
	return ids, nil
}
