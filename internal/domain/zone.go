package domain

import (
	"time"

	"fuelanchor/internal/geo"
)

// ZoneType classifies a zone.
type ZoneType string

const (
	ZoneTypeStation    ZoneType = "STATION"
	ZoneTypeFleetArea  ZoneType = "FLEET_AREA"
	ZoneTypeCorridor   ZoneType = "CORRIDOR"
	ZoneTypeRestricted ZoneType = "RESTRICTED"
	ZoneTypeCountry    ZoneType = "COUNTRY"
	ZoneTypeUrban      ZoneType = "URBAN"
)

// Valid reports whether t is a known zone type.
func (t ZoneType) Valid() bool {
	switch t {
	case ZoneTypeStation, ZoneTypeFleetArea, ZoneTypeCorridor,
		ZoneTypeRestricted, ZoneTypeCountry, ZoneTypeUrban:
		return true
	}
	return false
}

// CircularZone is a center point with a radius.
type CircularZone struct {
	ID           ID
	Name         string
	Center       geo.Point
	RadiusMeters uint32
	ZoneType     ZoneType
	IsActive     bool
	CreatedAt    time.Time
}

// PolygonZone is a closed ring of at least three vertices.
type PolygonZone struct {
	ID        ID
	Name      string
	Vertices  []geo.Point
	ZoneType  ZoneType
	IsActive  bool
	CreatedAt time.Time
}

// MinPolygonVertices is the smallest vertex count a polygon zone may have.
const MinPolygonVertices = 3

// Corridor is a buffered route from Start through Waypoints to End.
type Corridor struct {
	ID           ID
	Name         string
	Start        geo.Point
	End          geo.Point
	Waypoints    []geo.Point
	BufferMeters uint32
	IsActive     bool
	CreatedAt    time.Time
}

// Path returns the polyline start, waypoints..., end.
func (c *Corridor) Path() []geo.Point {
	path := make([]geo.Point, 0, len(c.Waypoints)+2)
	path = append(path, c.Start)
	path = append(path, c.Waypoints...)
	return append(path, c.End)
}

// ValidationResult is the outcome of checking a point against a circular zone.
type ValidationResult struct {
	IsValid            bool      `json:"is_valid"`
	ZoneID             ID        `json:"zone_id"`
	ZoneName           string    `json:"zone_name"`
	DistanceFromCenter uint32    `json:"distance_from_center"`
	ValidatedAt        time.Time `json:"validated_at"`
}

// FleetZones lists the circular zones a fleet operator's vehicles may operate in.
type FleetZones struct {
	Operator Address
	ZoneIDs  []ID
}
