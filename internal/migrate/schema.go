// Package migrate creates the PostgreSQL schema on startup.
package migrate

import (
	"context"
	"database/sql"
	"fmt"

	"fuelanchor/internal/logger"
)

// statements are idempotent; EnsureSchema may run on every start.
var statements = []string{
	`CREATE TABLE IF NOT EXISTS settings (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS counters (
		name  TEXT PRIMARY KEY,
		value BIGINT NOT NULL DEFAULT 0
	)`,
	`INSERT INTO counters (name, value) VALUES ('zones', 0), ('corridors', 0), ('redemptions', 0)
	 ON CONFLICT (name) DO NOTHING`,
	`CREATE TABLE IF NOT EXISTS circular_zones (
		id            BYTEA PRIMARY KEY,
		name          TEXT NOT NULL,
		center_lat    BIGINT NOT NULL,
		center_lng    BIGINT NOT NULL,
		radius_meters BIGINT NOT NULL,
		zone_type     TEXT NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS polygon_zones (
		id          BYTEA PRIMARY KEY,
		name        TEXT NOT NULL,
		vertex_lats BIGINT[] NOT NULL,
		vertex_lngs BIGINT[] NOT NULL,
		zone_type   TEXT NOT NULL,
		is_active   BOOLEAN NOT NULL DEFAULT TRUE,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS corridors (
		id            BYTEA PRIMARY KEY,
		name          TEXT NOT NULL,
		start_lat     BIGINT NOT NULL,
		start_lng     BIGINT NOT NULL,
		end_lat       BIGINT NOT NULL,
		end_lng       BIGINT NOT NULL,
		waypoint_lats BIGINT[] NOT NULL DEFAULT '{}',
		waypoint_lngs BIGINT[] NOT NULL DEFAULT '{}',
		buffer_meters BIGINT NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fleet_zones (
		operator TEXT PRIMARY KEY,
		zone_ids BYTEA[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS stations (
		id                  BYTEA PRIMARY KEY,
		name                TEXT NOT NULL,
		owner               TEXT NOT NULL UNIQUE,
		center_lat          BIGINT NOT NULL,
		center_lng          BIGINT NOT NULL,
		radius_meters       BIGINT NOT NULL,
		is_active           BOOLEAN NOT NULL DEFAULT TRUE,
		fuel_price_per_unit BIGINT NOT NULL CHECK (fuel_price_per_unit > 0),
		total_redemptions   BIGINT NOT NULL DEFAULT 0,
		registered_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS drivers (
		address             TEXT PRIMARY KEY,
		fleet_operator      TEXT NOT NULL,
		vehicle_id          TEXT NOT NULL,
		max_per_transaction BIGINT NOT NULL CHECK (max_per_transaction >= 0),
		daily_limit         BIGINT NOT NULL CHECK (daily_limit >= 0),
		weekly_limit        BIGINT NOT NULL CHECK (weekly_limit >= 0),
		allowed_stations    BYTEA[] NOT NULL DEFAULT '{}',
		daily_spent         BIGINT NOT NULL DEFAULT 0,
		weekly_spent        BIGINT NOT NULL DEFAULT 0,
		last_daily_reset    BIGINT NOT NULL,
		last_weekly_reset   BIGINT NOT NULL,
		is_active           BOOLEAN NOT NULL DEFAULT TRUE,
		total_redemptions   BIGINT NOT NULL DEFAULT 0,
		registered_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_drivers_fleet ON drivers (fleet_operator)`,
	`CREATE TABLE IF NOT EXISTS redemptions (
		id              BYTEA PRIMARY KEY,
		counter         BIGINT NOT NULL UNIQUE,
		driver          TEXT NOT NULL REFERENCES drivers (address),
		station_id      BYTEA NOT NULL REFERENCES stations (id),
		amount          BIGINT NOT NULL,
		units           BIGINT NOT NULL,
		gps_lat         BIGINT NOT NULL,
		gps_lng         BIGINT NOT NULL,
		ledger_sequence BIGINT NOT NULL,
		vehicle_id      TEXT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_redemptions_driver ON redemptions (driver, counter DESC)`,
	`CREATE TABLE IF NOT EXISTS events (
		seq             BIGSERIAL PRIMARY KEY,
		id              UUID NOT NULL UNIQUE,
		type            TEXT NOT NULL,
		actor           TEXT NOT NULL,
		topics          TEXT[] NOT NULL DEFAULT '{}',
		data            JSONB NOT NULL DEFAULT '{}',
		ledger_sequence BIGINT NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates every table and index that does not exist yet.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	logger.L().Debug("schema_done", "statements", len(statements))
	return nil
}
