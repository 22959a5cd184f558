package service

import (
	"errors"
	"fmt"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/repository"
)

var (
	// ErrNotInitialized is returned when an admin-gated operation runs before Initialize.
	ErrNotInitialized = errors.New("not initialized")

	// ErrAlreadyInitialized is returned when Initialize runs twice.
	ErrAlreadyInitialized = errors.New("already initialized")

	// ErrUnauthorized is returned when the actor is not allowed to perform the operation.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidAddress is returned when a required account address is empty.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrInvalidAmount is returned for non-positive amounts and prices, negative limits
	// and amounts whose unit conversion overflows.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidGeometry is returned for out-of-range coordinates and degenerate shapes.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidZoneType is returned for an unknown zone type.
	ErrInvalidZoneType = fmt.Errorf("unknown zone type: %w", ErrInvalidGeometry)

	// ErrStationNotVerified is returned when the station is unknown or inactive.
	ErrStationNotVerified = errors.New("station not verified")

	// ErrOutOfGeofence is returned when the driver is outside the station geofence.
	ErrOutOfGeofence = errors.New("out of geofence")

	// ErrTransactionLimitExceeded is returned when the amount exceeds the per-transaction ceiling.
	ErrTransactionLimitExceeded = errors.New("transaction limit exceeded")

	// ErrStationNotAllowed is returned when the station is missing from the driver's allow-list.
	// It matches ErrTransactionLimitExceeded with errors.Is.
	ErrStationNotAllowed = fmt.Errorf("station not in allowed list: %w", ErrTransactionLimitExceeded)

	// ErrDailyLimitExceeded is returned when the amount would exceed the daily limit.
	ErrDailyLimitExceeded = errors.New("daily limit exceeded")

	// ErrWeeklyLimitExceeded is returned when the amount would exceed the weekly limit.
	ErrWeeklyLimitExceeded = errors.New("weekly limit exceeded")

	// ErrDriverDeactivated is returned when the driver account is deactivated.
	ErrDriverDeactivated = errors.New("driver account is deactivated")

	// ErrDriverNotRegistered is returned when no driver exists at the address.
	// It matches repository.ErrNotFound with errors.Is.
	ErrDriverNotRegistered = fmt.Errorf("driver not registered: %w", repository.ErrNotFound)
)

// Code returns the stable machine code for err, or "INTERNAL" for unknown errors.
// Wrapping errors are checked before the errors they wrap.
func Code(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "INTERNAL"
}

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrNotInitialized, "NOT_INITIALIZED"},
	{ErrAlreadyInitialized, "ALREADY_INITIALIZED"},
	{ErrUnauthorized, "UNAUTHORIZED"},
	{ErrInvalidAddress, "INVALID_ADDRESS"},
	{ErrInvalidAmount, "INVALID_AMOUNT"},
	{ErrInvalidZoneType, "INVALID_ZONE_TYPE"},
	{ErrInvalidGeometry, "INVALID_GEOMETRY"},
	{domain.ErrInvalidID, "INVALID_ID"},
	{ErrStationNotVerified, "STATION_NOT_VERIFIED"},
	{ErrOutOfGeofence, "OUT_OF_GEOFENCE"},
	{ErrStationNotAllowed, "STATION_NOT_ALLOWED"},
	{ErrTransactionLimitExceeded, "TRANSACTION_LIMIT_EXCEEDED"},
	{ErrDailyLimitExceeded, "DAILY_LIMIT_EXCEEDED"},
	{ErrWeeklyLimitExceeded, "WEEKLY_LIMIT_EXCEEDED"},
	{ErrDriverDeactivated, "DRIVER_DEACTIVATED"},
	{ErrDriverNotRegistered, "DRIVER_NOT_REGISTERED"},
	{repository.ErrNotFound, "NOT_FOUND"},
	{repository.ErrAlreadyExists, "ALREADY_EXISTS"},
}
