package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "LEDGERS_PER_DAY", "AUTH_ENABLED", "LEDGER_GENESIS", "REDEEM_RATE_PER_MINUTE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Store.Backend != StoreBackendPostgres {
		t.Errorf("expected postgres backend, got %q", cfg.Store.Backend)
	}
	if cfg.Ledger.LedgersPerDay != 17_280 {
		t.Errorf("expected 17280 ledgers per day, got %d", cfg.Ledger.LedgersPerDay)
	}
	if !cfg.Auth.Enabled {
		t.Error("expected auth to be enabled by default")
	}
	if cfg.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("expected 30 requests per minute, got %f", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", StoreBackendMemory)
	t.Setenv("LEDGERS_PER_DAY", "100")
	t.Setenv("LEDGER_INTERVAL", "1s")
	t.Setenv("LEDGER_GENESIS", "2025-06-01T00:00:00Z")
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("REDEEM_RATE_PER_MINUTE", "not-a-number")

	cfg := Load()

	if cfg.Store.Backend != StoreBackendMemory {
		t.Errorf("expected memory backend, got %q", cfg.Store.Backend)
	}
	if cfg.Ledger.LedgersPerDay != 100 || cfg.Ledger.Interval != time.Second {
		t.Errorf("unexpected ledger config %+v", cfg.Ledger)
	}
	if !cfg.Ledger.Genesis.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected genesis %s", cfg.Ledger.Genesis)
	}
	if cfg.Auth.Enabled {
		t.Error("expected auth to be disabled")
	}
	if cfg.RateLimit.RequestsPerMinute != 30 {
		t.Errorf("expected invalid value to fall back to 30, got %f", cfg.RateLimit.RequestsPerMinute)
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "fuel",
		Password: "p@ss:word",
		DBName:   "fuelanchor",
		SSLMode:  "require",
	}

	want := "postgres://fuel:p%40ss%3Aword@db:5432/fuelanchor?sslmode=require"
	if got := cfg.DSN(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
