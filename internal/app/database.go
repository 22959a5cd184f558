package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // registers "nrpostgres"
	"github.com/newrelic/go-agent/v3/newrelic"

	"fuelanchor/internal/config"
	"fuelanchor/internal/logger"
)

const (
	pingAttempts = 5
	pingBackoff  = 500 * time.Millisecond
)

// NewDatabase opens the PostgreSQL pool backing the ledger state. With nrApp set
// the nrpostgres driver is used so queries show up as datastore segments.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, nrApp *newrelic.Application) (*sql.DB, error) {
	db, err := sql.Open(driverName(nrApp), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Redemptions hold a driver row lock for the whole transaction, so the pool
	// bounds how many can be in flight.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := pingWithRetry(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func driverName(nrApp *newrelic.Application) string {
	if nrApp != nil {
		return "nrpostgres"
	}
	return "postgres"
}

// pingWithRetry waits for Postgres to accept connections, doubling the wait
// between attempts. Compose stacks often start the API before the database.
func pingWithRetry(ctx context.Context, db *sql.DB) error {
	wait := pingBackoff
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		logger.L().Warn("db_ping_failed", "attempt", attempt, "err", err)

		select {
		case <-ctx.Done():
			return fmt.Errorf("ping database: %w", ctx.Err())
		case <-time.After(wait):
		}
		wait *= 2
	}
	return fmt.Errorf("ping database: %w", err)
}
