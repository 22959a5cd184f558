package service

import (
	"context"
	"errors"
	"slices"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/repository"
)

// require fails with ErrUnauthorized unless actor is expected.
func require(actor, expected domain.Address) error {
	return requireAny(actor, expected)
}

// requireAny fails with ErrUnauthorized unless actor is one of expected.
func requireAny(actor domain.Address, expected ...domain.Address) error {
	if actor.IsZero() || !slices.Contains(expected, actor) {
		return ErrUnauthorized
	}
	return nil
}

// loadAdmin returns the admin address, or ErrNotInitialized.
func loadAdmin(ctx context.Context, settings repository.SettingsRepository) (domain.Address, error) {
	admin, err := settings.GetAdmin(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotInitialized
		}
		return "", err
	}
	return admin, nil
}

// requireAdmin fails unless actor is the admin.
func requireAdmin(ctx context.Context, settings repository.SettingsRepository, actor domain.Address) error {
	admin, err := loadAdmin(ctx, settings)
	if err != nil {
		return err
	}
	return require(actor, admin)
}
