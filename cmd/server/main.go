package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"fuelanchor/internal/app"
	"fuelanchor/internal/config"
	"fuelanchor/internal/handler"
	"fuelanchor/internal/ledger"
	"fuelanchor/internal/logger"
	"fuelanchor/internal/middleware"
	"fuelanchor/internal/migrate"
	internalRedis "fuelanchor/internal/redis"
	"fuelanchor/internal/repository"
	"fuelanchor/internal/repository/memory"
	"fuelanchor/internal/repository/postgres"
	"fuelanchor/internal/seed"
	"fuelanchor/internal/service"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load(".env")
	log := logger.Setup()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Warn("newrelic_init_failed", "err", err)
		} else {
			log.Info("newrelic_enabled", "app", cfg.NewRelic.AppName)
		}
	}

	store, closeStore, err := openStore(ctx, cfg, nrApp)
	if err != nil {
		log.Error("store_open_failed", "backend", cfg.Store.Backend, "err", err)
		os.Exit(1)
	}
	defer closeStore()
	log.Info("store_ready", "backend", cfg.Store.Backend)

	// Redis backs the cache, the location index, the event stream and idempotency.
	// The ledger state does not depend on it, so the service runs without it.
	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			log.Warn("redis_unavailable", "addr", cfg.Redis.Addr, "err", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Info("redis_connected", "addr", cfg.Redis.Addr)
		}
	}

	server := wireServer(ctx, store, redisClient, nrApp, cfg)

	go func() {
		log.Info("server_starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server_failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("server_stopping")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server_forced_shutdown", "err", err)
		return
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	log.Info("server_exited")
}

// openStore opens the configured persistence backend and returns a close func.
func openStore(ctx context.Context, cfg *config.Config, nrApp *newrelic.Application) (repository.Store, func(), error) {
	if cfg.Store.Backend == config.StoreBackendMemory {
		return memory.NewStore(), func() {}, nil
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		return nil, nil, err
	}
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	return postgres.NewStore(db), func() { closeDB(db) }, nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.L().Warn("db_close_failed", "err", err)
	}
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(ctx context.Context, store repository.Store, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	// Redis collaborators stay nil interfaces without a client.
	var (
		cacheStore    internalRedis.StationCacheInterface
		locationStore internalRedis.LocationStoreInterface
		lockStore     internalRedis.LockStoreInterface
		stream        internalRedis.StreamInterface
	)
	if redisClient != nil {
		cacheStore = internalRedis.NewCacheStore(redisClient)
		locationStore = internalRedis.NewLocationStore(redisClient)
		lockStore = internalRedis.NewLockStore(redisClient)
		stream = internalRedis.NewStreamStore(redisClient)
	}

	clock := ledger.NewSystemClock(cfg.Ledger.Genesis, cfg.Ledger.Interval)
	windows := ledger.WindowsFor(cfg.Ledger.LedgersPerDay)
	publisher := service.NewEventPublisher(stream)

	// Initialize services.
	adminService := service.NewAdminService(store, clock, publisher)
	zoneService := service.NewZoneService(store, clock, publisher)
	stationService := service.NewStationService(store, clock, publisher, cacheStore, locationStore)
	driverService := service.NewDriverService(store, clock, windows, publisher)
	redemptionService := service.NewRedemptionService(store, clock, windows, publisher, cacheStore)

	if cfg.Seed.Enabled {
		seedCorridors(ctx, cfg.Seed, adminService, seed.NewLoader(zoneService, lockStore))
	}

	router := app.NewRouter(app.RouterDeps{
		AdminHandler:      handler.NewAdminHandler(adminService),
		ZoneHandler:       handler.NewZoneHandler(zoneService),
		StationHandler:    handler.NewStationHandler(stationService),
		DriverHandler:     handler.NewDriverHandler(driverService),
		RedemptionHandler: handler.NewRedemptionHandler(redemptionService),
		RedisClient:       redisClient,
		NewRelicApp:       nrApp,
		Auth: middleware.AuthConfig{
			Enabled:    cfg.Auth.Enabled,
			HMACSecret: cfg.Auth.JWTSecret,
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  cfg.Auth.ClockSkew,
		},
		RedeemLimiter: middleware.NewRateLimiter(middleware.RateLimit{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
		}),
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// seedCorridors loads the predefined corridors once an admin exists. Failures are
// logged; the corridors can still be created through the API.
func seedCorridors(ctx context.Context, cfg config.SeedConfig, adminService *service.AdminService, loader *seed.Loader) {
	admin, err := adminService.Admin(ctx)
	if errors.Is(err, service.ErrNotInitialized) {
		logger.L().Info("seed_deferred", "reason", "not_initialized")
		return
	}
	if err != nil {
		logger.L().Warn("seed_failed", "err", err)
		return
	}

	corridors, err := seed.LoadFile(cfg.File)
	if err != nil {
		logger.L().Warn("seed_failed", "file", cfg.File, "err", err)
		return
	}
	created, err := loader.Run(ctx, admin, corridors)
	if err != nil {
		logger.L().Warn("seed_failed", "err", err)
		return
	}
	logger.L().Info("seed_done", "created", created, "total", len(corridors))
}
