package service

import (
	"context"
	"errors"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/ledger"
	"fuelanchor/internal/logger"
	"fuelanchor/internal/metrics"
	"fuelanchor/internal/redis"
	"fuelanchor/internal/repository"
)

// RedemptionService converts a driver's fuel credit into fuel units at a station.
type RedemptionService struct {
	store     repository.Store
	clock     ledger.Clock
	windows    domain.Windows
	publisher  *EventPublisher
	cacheStore redis.StationCacheInterface
}

// NewRedemptionService creates a new RedemptionService. cacheStore may be nil.
func NewRedemptionService(
	store repository.Store,
	clock ledger.Clock,
	windows domain.Windows,
	publisher *EventPublisher,
	cacheStore redis.StationCacheInterface,
) *RedemptionService {
	return &RedemptionService{
		store:      store,
		clock:      clock,
		windows:    windows,
		publisher:  publisher,
		cacheStore: cacheStore,
	}
}

// RedeemRequest contains the parameters for a redemption. Actor must be the driver.
type RedeemRequest struct {
	Actor     domain.Address
	Driver    domain.Address
	StationID domain.ID
	Amount    int64
	GPS       geo.Point
}

// Redeem validates and records one redemption. Either every effect is committed
// (record, driver usage, station total, counter, event) or none is.
func (s *RedemptionService) Redeem(ctx context.Context, req RedeemRequest) (*domain.RedemptionRecord, error) {
	var (
		record *domain.RedemptionRecord
		roll   domain.WindowRoll
	)

	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := require(req.Actor, req.Driver); err != nil {
			return err
		}
		if req.Amount <= 0 {
			return ErrInvalidAmount
		}
		if !req.GPS.Valid() {
			return ErrInvalidGeometry
		}

		driver, err := loadDriver(ctx, repos.Drivers, req.Driver)
		if err != nil {
			return err
		}
		if !driver.IsActive {
			return ErrDriverDeactivated
		}

		station, err := repos.Stations.GetByID(ctx, req.StationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrStationNotVerified
			}
			return err
		}
		if !station.IsActive {
			return ErrStationNotVerified
		}

		if !station.Geofence.Contains(req.GPS) {
			return ErrOutOfGeofence
		}
		if !driver.Limits.Allows(station.ID) {
			return ErrStationNotAllowed
		}

		seq := s.clock.Sequence()
		roll = driver.RollWindows(seq, s.windows)

		if req.Amount > driver.Limits.MaxPerTransaction {
			return ErrTransactionLimitExceeded
		}
		if req.Amount > driver.Limits.DailyLimit-driver.DailySpent {
			return ErrDailyLimitExceeded
		}
		if req.Amount > driver.Limits.WeeklyLimit-driver.WeeklySpent {
			return ErrWeeklyLimitExceeded
		}

		units, ok := domain.ComputeUnits(req.Amount, station.FuelPricePerUnit)
		if !ok {
			return ErrInvalidAmount
		}

		count, err := repos.Settings.Increment(ctx, repository.CounterRedemptions)
		if err != nil {
			return err
		}

		record = &domain.RedemptionRecord{
			ID:        domain.RedemptionID(count),
			Counter:   count,
			Driver:    driver.Address,
			StationID: station.ID,
			Amount:    req.Amount,
			Units:     units,
			GPS:       req.GPS,
			Sequence:  seq,
			Timestamp: s.clock.Now(),
			VehicleID: driver.VehicleID,
		}
		if err := repos.Redemptions.Create(ctx, record); err != nil {
			return err
		}

		driver.DailySpent += req.Amount
		driver.WeeklySpent += req.Amount
		driver.TotalRedemptions++
		if err := repos.Drivers.Update(ctx, driver); err != nil {
			return err
		}

		station.TotalRedemptions++
		if err := repos.Stations.Update(ctx, station); err != nil {
			return err
		}

		return batch.record(ctx, repos.Events, domain.EventFuelRedeemed, req.Actor,
			[]string{string(driver.Address), station.ID.String()},
			map[string]any{
				"amount":    record.Amount,
				"units":     record.Units,
				"timestamp": record.Timestamp.Unix(),
			})
	})
	if err != nil {
		s.observeRejection(req, err)
		return nil, err
	}

	// The cached station carries a stale redemption total now.
	if s.cacheStore != nil {
		if err := s.cacheStore.InvalidateStation(ctx, record.StationID); err != nil {
			logger.L().Warn("station_cache_invalidate_failed", "station", record.StationID.String(), "err", err)
		}
	}

	s.publisher.Publish(ctx, batch.events)

	if roll.Any() {
		metrics.QuotaTransitionsTotal.WithLabelValues(string(domain.QuotaRolledOver)).Inc()
	}
	metrics.QuotaTransitionsTotal.WithLabelValues(string(domain.QuotaCharged)).Inc()
	metrics.RedemptionsTotal.Inc()
	metrics.RedemptionAmount.Observe(float64(record.Amount))

	logger.L().Info("fuel_redeemed",
		"redemption", record.ID.String(),
		"counter", record.Counter,
		"driver", record.Driver,
		"station", record.StationID.String(),
		"amount", record.Amount,
		"units", record.Units,
		"sequence", record.Sequence,
		"daily_rolled", roll.Daily,
		"weekly_rolled", roll.Weekly,
	)

	return record, nil
}

func (s *RedemptionService) observeRejection(req RedeemRequest, err error) {
	code := Code(err)
	metrics.RedemptionRejectionsTotal.WithLabelValues(code).Inc()
	if errors.Is(err, ErrDriverDeactivated) {
		metrics.QuotaTransitionsTotal.WithLabelValues(string(domain.QuotaDeactivated)).Inc()
	}
	logger.L().Warn("redemption_rejected",
		"driver", req.Driver,
		"station", req.StationID.String(),
		"amount", req.Amount,
		"code", code,
		"err", err,
	)
}

// GetRedemption retrieves a redemption record by ID.
func (s *RedemptionService) GetRedemption(ctx context.Context, id domain.ID) (*domain.RedemptionRecord, error) {
	return s.store.Repositories().Redemptions.GetByID(ctx, id)
}

// ListDriverRedemptions returns up to limit of the driver's redemptions, newest first.
func (s *RedemptionService) ListDriverRedemptions(ctx context.Context, driver domain.Address, limit int) ([]*domain.RedemptionRecord, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return s.store.Repositories().Redemptions.GetByDriver(ctx, driver, limit)
}

// LastRedemption returns the driver's most recent redemption.
func (s *RedemptionService) LastRedemption(ctx context.Context, driver domain.Address) (*domain.RedemptionRecord, error) {
	return s.store.Repositories().Redemptions.GetLastByDriver(ctx, driver)
}

// Count returns the number of successful redemptions.
func (s *RedemptionService) Count(ctx context.Context) (uint64, error) {
	return s.store.Repositories().Settings.Counter(ctx, repository.CounterRedemptions)
}
