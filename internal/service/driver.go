package service

import (
	"context"
	"errors"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/ledger"
	"fuelanchor/internal/repository"
)

// DriverService handles driver registration and spending limits.
type DriverService struct {
	store     repository.Store
	clock     ledger.Clock
	windows   domain.Windows
	publisher *EventPublisher
}

// NewDriverService creates a new DriverService.
func NewDriverService(store repository.Store, clock ledger.Clock, windows domain.Windows, publisher *EventPublisher) *DriverService {
	return &DriverService{
		store:     store,
		clock:     clock,
		windows:   windows,
		publisher: publisher,
	}
}

// RegisterDriverRequest contains the parameters for registering a driver.
// The actor becomes the driver's fleet operator.
type RegisterDriverRequest struct {
	Actor     domain.Address
	Address   domain.Address
	VehicleID string
	Limits    domain.SpendingLimits
}

// RegisterDriver registers an active driver under the calling fleet operator.
func (s *DriverService) RegisterDriver(ctx context.Context, req RegisterDriverRequest) (*domain.Driver, error) {
	if req.Actor.IsZero() {
		return nil, ErrUnauthorized
	}
	if req.Address.IsZero() {
		return nil, ErrInvalidAddress
	}
	if !req.Limits.Valid() {
		return nil, ErrInvalidAmount
	}

	seq := s.clock.Sequence()
	driver := &domain.Driver{
		Address:         req.Address,
		FleetOperator:   req.Actor,
		VehicleID:       req.VehicleID,
		Limits:          req.Limits,
		LastDailyReset:  seq,
		LastWeeklyReset: seq,
		IsActive:        true,
		RegisteredAt:    s.clock.Now(),
	}

	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Drivers.Create(ctx, driver); err != nil {
			return err
		}
		return batch.record(ctx, repos.Events, domain.EventDriverRegistered, req.Actor,
			[]string{string(driver.Address)}, map[string]any{"fleet_operator": driver.FleetOperator})
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, batch.events)
	return driver, nil
}

// UpdateSpendingLimits replaces a driver's limits. Fleet operator of record only.
// Usage counters are left untouched.
func (s *DriverService) UpdateSpendingLimits(ctx context.Context, actor, address domain.Address, limits domain.SpendingLimits) (*domain.Driver, error) {
	if !limits.Valid() {
		return nil, ErrInvalidAmount
	}
	return s.mutate(ctx, actor, address, domain.EventLimitsUpdated, func(d *domain.Driver) (map[string]any, bool) {
		d.Limits = limits
		return map[string]any{
			"max_per_transaction": limits.MaxPerTransaction,
			"daily_limit":         limits.DailyLimit,
			"weekly_limit":        limits.WeeklyLimit,
		}, true
	})
}

// DeactivateDriver blocks a driver from redeeming. Fleet operator of record only.
func (s *DriverService) DeactivateDriver(ctx context.Context, actor, address domain.Address) (*domain.Driver, error) {
	return s.mutate(ctx, actor, address, domain.EventDriverDeactivated, func(d *domain.Driver) (map[string]any, bool) {
		if d.IsActive == false {
			return nil, false
		}
		d.IsActive = false
		return nil, true
	})
}

// ReactivateDriver lets a deactivated driver redeem again. Fleet operator of record only.
func (s *DriverService) ReactivateDriver(ctx context.Context, actor, address domain.Address) (*domain.Driver, error) {
	return s.mutate(ctx, actor, address, domain.EventDriverReactivated, func(d *domain.Driver) (map[string]any, bool) {
		if d.IsActive == true {
			return nil, false
		}
		d.IsActive = true
		return nil, true
	})
}

// mutate loads the driver, checks the actor is its fleet operator, applies fn and
// records an event of type typ with the data fn returns. When fn reports no change
// the driver is neither written nor announced.
func (s *DriverService) mutate(
	ctx context.Context,
	actor, address domain.Address,
	typ domain.EventType,
	fn func(d *domain.Driver) (map[string]any, bool),
) (*domain.Driver, error) {
	var driver *domain.Driver
	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		var err error
		driver, err = loadDriver(ctx, repos.Drivers, address)
		if err != nil {
			return err
		}
		if err := require(actor, driver.FleetOperator); err != nil {
			return err
		}

		data, changed := fn(driver)
		if !changed {
			return nil
		}
		if err := repos.Drivers.Update(ctx, driver); err != nil {
			return err
		}
		return batch.record(ctx, repos.Events, typ, actor, []string{string(driver.Address)}, data)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, batch.events)
	return driver, nil
}

// GetDriver retrieves a driver by address.
func (s *DriverService) GetDriver(ctx context.Context, address domain.Address) (*domain.Driver, error) {
	return loadDriver(ctx, s.store.Repositories().Drivers, address)
}

// GetRemainingDailyLimit returns what the driver may still redeem today, as if the
// day window had been rolled at the current sequence.
func (s *DriverService) GetRemainingDailyLimit(ctx context.Context, address domain.Address) (int64, error) {
	driver, err := s.GetDriver(ctx, address)
	if err != nil {
		return 0, err
	}
	return driver.RemainingDaily(s.clock.Sequence(), s.windows), nil
}

// GetRemainingWeeklyLimit returns what the driver may still redeem this week.
func (s *DriverService) GetRemainingWeeklyLimit(ctx context.Context, address domain.Address) (int64, error) {
	driver, err := s.GetDriver(ctx, address)
	if err != nil {
		return 0, err
	}
	return driver.RemainingWeekly(s.clock.Sequence(), s.windows), nil
}

// ListFleetDrivers returns the drivers registered by operator.
func (s *DriverService) ListFleetDrivers(ctx context.Context, operator domain.Address) ([]*domain.Driver, error) {
	return s.store.Repositories().Drivers.GetByFleet(ctx, operator)
}

func loadDriver(ctx context.Context, repo repository.DriverRepository, address domain.Address) (*domain.Driver, error) {
	driver, err := repo.GetByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDriverNotRegistered
		}
		return nil, err
	}
	return driver, nil
}
