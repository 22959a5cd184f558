package domain

import "time"

// EventType names a state transition published to collaborators.
type EventType string

const (
	EventInitialized         EventType = "initialized"
	EventZoneCreated         EventType = "zone_created"
	EventPolygonZoneCreated  EventType = "polygon_zone_created"
	EventCorridorCreated     EventType = "corridor_created"
	EventZoneDeactivated     EventType = "zone_deactivated"
	EventCorridorDeactivated EventType = "corridor_deactivated"
	EventFleetZonesAssigned  EventType = "fleet_zones_assigned"
	EventStationRegistered   EventType = "station_registered"
	EventPriceUpdated        EventType = "price_updated"
	EventStationDeactivated  EventType = "station_deactivated"
	EventDriverRegistered    EventType = "driver_registered"
	EventLimitsUpdated       EventType = "limits_updated"
	EventDriverDeactivated   EventType = "driver_deactivated"
	EventDriverReactivated   EventType = "driver_reactivated"
	EventFuelRedeemed        EventType = "fuel_redeemed"
)

// Event is one entry of the append-only event log.
// Topics identify the affected entities; Data carries the payload.
type Event struct {
	ID        string
	Seq       int64 // assigned by the store on append
	Type      EventType
	Actor     Address
	Topics    []string
	Data      map[string]any
	Ledger    uint64
	CreatedAt time.Time
}
