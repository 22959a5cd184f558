package tests

import (
	"context"
	"testing"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/ledger"
	"fuelanchor/internal/repository/memory"
	"fuelanchor/internal/service"
)

const (
	adminAddr  domain.Address = "GADMIN"
	fleetAddr  domain.Address = "GFLEET"
	driverAddr domain.Address = "GDRIVER"
	ownerAddr  domain.Address = "GOWNER"
	otherAddr  domain.Address = "GOTHER"

	// Short ledger day so rollover tests advance the clock by small steps.
	testLedgersPerDay = 100
	startSequence     = 1_000
)

var (
	stationID = domain.ID{0x51}

	// Nairobi.
	stationCenter = geo.Point{Lat: -1_286_389, Lng: 36_817_222}

	// About 1.1km north of the station center.
	outsideGeofence = geo.Point{Lat: -1_276_389, Lng: 36_817_222}
)

var defaultLimits = domain.SpendingLimits{
	MaxPerTransaction: 500,
	DailyLimit:        1_000,
	WeeklyLimit:       5_000,
}

// harness wires every service against an in-memory store and mock Redis collaborators.
type harness struct {
	store     *memory.Store
	clock     *ledger.ManualClock
	stream    *MockStream
	cache     *MockStationCache
	locations *MockLocationStore

	admin       *service.AdminService
	zones       *service.ZoneService
	stations    *service.StationService
	drivers     *service.DriverService
	redemptions *service.RedemptionService
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		store:     memory.NewStore(),
		clock:     ledger.NewManualClock(startSequence),
		stream:    NewMockStream(),
		cache:     NewMockStationCache(),
		locations: NewMockLocationStore(),
	}

	windows := ledger.WindowsFor(testLedgersPerDay)
	publisher := service.NewEventPublisher(h.stream)

	h.admin = service.NewAdminService(h.store, h.clock, publisher)
	h.zones = service.NewZoneService(h.store, h.clock, publisher)
	h.stations = service.NewStationService(h.store, h.clock, publisher, h.cache, h.locations)
	h.drivers = service.NewDriverService(h.store, h.clock, windows, publisher)
	h.redemptions = service.NewRedemptionService(h.store, h.clock, windows, publisher, h.cache)
	return h
}

func (h *harness) initialize(t *testing.T) {
	t.Helper()
	if err := h.admin.Initialize(context.Background(), adminAddr); err != nil {
		t.Fatalf("initialize: %v", err)
	}
}

func (h *harness) registerStation(t *testing.T, id domain.ID, owner domain.Address, center geo.Point, price int64) *domain.Station {
	t.Helper()
	station, err := h.stations.RegisterStation(context.Background(), service.RegisterStationRequest{
		Actor:            adminAddr,
		ID:               id,
		Name:             "Station " + id.String()[:4],
		Owner:            owner,
		Geofence:         domain.Geofence{Center: center, RadiusMeters: 500},
		FuelPricePerUnit: price,
	})
	if err != nil {
		t.Fatalf("register station: %v", err)
	}
	return station
}

func (h *harness) registerDriver(t *testing.T, address domain.Address, limits domain.SpendingLimits) *domain.Driver {
	t.Helper()
	driver, err := h.drivers.RegisterDriver(context.Background(), service.RegisterDriverRequest{
		Actor:     fleetAddr,
		Address:   address,
		VehicleID: "KDA 123A",
		Limits:    limits,
	})
	if err != nil {
		t.Fatalf("register driver: %v", err)
	}
	return driver
}

// setup initializes the engine with one station and one driver.
func (h *harness) setup(t *testing.T, limits domain.SpendingLimits) {
	t.Helper()
	h.initialize(t)
	h.registerStation(t, stationID, ownerAddr, stationCenter, 10_000_000)
	h.registerDriver(t, driverAddr, limits)
}

func (h *harness) redeem(amount int64) (*domain.RedemptionRecord, error) {
	return h.redemptions.Redeem(context.Background(), service.RedeemRequest{
		Actor:     driverAddr,
		Driver:    driverAddr,
		StationID: stationID,
		Amount:    amount,
		GPS:       stationCenter,
	})
}

func (h *harness) mustDriver(t *testing.T, address domain.Address) *domain.Driver {
	t.Helper()
	driver, err := h.drivers.GetDriver(context.Background(), address)
	if err != nil {
		t.Fatalf("get driver: %v", err)
	}
	return driver
}

func (h *harness) mustStation(t *testing.T, id domain.ID) *domain.Station {
	t.Helper()
	station, err := h.store.Repositories().Stations.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("get station: %v", err)
	}
	return station
}

func (h *harness) redemptionCount(t *testing.T) uint64 {
	t.Helper()
	count, err := h.redemptions.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	return count
}
