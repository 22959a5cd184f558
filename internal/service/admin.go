package service

import (
	"context"
	"errors"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/ledger"
	"fuelanchor/internal/repository"
)

// AdminService handles one-time initialization of the engine.
type AdminService struct {
	store     repository.Store
	clock     ledger.Clock
	publisher *EventPublisher
}

// NewAdminService creates a new AdminService.
func NewAdminService(store repository.Store, clock ledger.Clock, publisher *EventPublisher) *AdminService {
	return &AdminService{
		store:     store,
		clock:     clock,
		publisher: publisher,
	}
}

// Initialize records admin as the administrator. It succeeds only once.
func (s *AdminService) Initialize(ctx context.Context, admin domain.Address) error {
	if admin.IsZero() {
		return ErrInvalidAddress
	}

	batch := newEventBatch(s.clock)
	err := s.store.RunInTx(ctx, func(repos repository.Repositories) error {
		if err := repos.Settings.SetAdmin(ctx, admin); err != nil {
			if errors.Is(err, repository.ErrAlreadyExists) {
				return ErrAlreadyInitialized
			}
			return err
		}
		return batch.record(ctx, repos.Events, domain.EventInitialized, admin, []string{string(admin)}, nil)
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(ctx, batch.events)
	return nil
}

// Admin returns the administrator address.
func (s *AdminService) Admin(ctx context.Context) (domain.Address, error) {
	return loadAdmin(ctx, s.store.Repositories().Settings)
}

// Events returns up to limit events from the log with sequence greater than after.
func (s *AdminService) Events(ctx context.Context, after int64, limit int) ([]*domain.Event, error) {
	if limit <= 0 || limit > maxPageSize {
		limit = maxPageSize
	}
	return s.store.Repositories().Events.List(ctx, after, limit)
}

// maxPageSize caps list endpoints.
const maxPageSize = 100
