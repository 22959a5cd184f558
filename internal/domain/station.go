package domain

import (
	"time"

	"fuelanchor/internal/geo"
)

// Geofence is the circular area in which a station accepts redemptions.
type Geofence struct {
	Center       geo.Point `json:"center"`
	RadiusMeters uint32    `json:"radius_meters"`
}

// Contains reports whether p lies within the geofence.
func (g Geofence) Contains(p geo.Point) bool {
	return geo.Distance(p, g.Center) <= g.RadiusMeters
}

// Station represents a verified merchant fuel station.
type Station struct {
	ID               ID
	Name             string
	Owner            Address
	Geofence         Geofence
	IsActive         bool
	FuelPricePerUnit int64 // fixed-point, UnitScale
	TotalRedemptions uint64
	RegisteredAt     time.Time
}
