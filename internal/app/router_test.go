package app

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/handler"
	"fuelanchor/internal/ledger"
	"fuelanchor/internal/middleware"
	"fuelanchor/internal/repository/memory"
	"fuelanchor/internal/service"
)

const (
	admin  = "GADMIN"
	fleet  = "GFLEET"
	driver = "GDRIVER"
	owner  = "GOWNER"

	testSecret = "test-secret"
)

var (
	stationID     = domain.ID{0x51}
	stationCenter = geo.Point{Lat: -1_286_389, Lng: 36_817_222}
)

func newTestRouter(t *testing.T, auth middleware.AuthConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	clock := ledger.NewManualClock(1_000)
	windows := ledger.WindowsFor(100)
	publisher := service.NewEventPublisher(nil)

	return NewRouter(RouterDeps{
		AdminHandler:      handler.NewAdminHandler(service.NewAdminService(store, clock, publisher)),
		ZoneHandler:       handler.NewZoneHandler(service.NewZoneService(store, clock, publisher)),
		StationHandler:    handler.NewStationHandler(service.NewStationService(store, clock, publisher, nil, nil)),
		DriverHandler:     handler.NewDriverHandler(service.NewDriverService(store, clock, windows, publisher)),
		RedemptionHandler: handler.NewRedemptionHandler(service.NewRedemptionService(store, clock, windows, publisher, nil)),
		Auth:              auth,
		RedeemLimiter:     middleware.NewRateLimiter(middleware.RateLimit{RequestsPerMinute: 1, Burst: 3}),
	})
}

func devRouter(t *testing.T) *gin.Engine {
	return newTestRouter(t, middleware.AuthConfig{Enabled: false})
}

func do(t *testing.T, router *gin.Engine, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		req.Header.Set(middleware.DevActorHeader, actor)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[handler.ErrorResponse](t, w).Code
}

// setupNetwork initializes the admin, one Nairobi station and one driver.
func setupNetwork(t *testing.T, router *gin.Engine) {
	t.Helper()

	w := do(t, router, http.MethodPost, "/v1/admin/initialize", admin, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/v1/stations", owner, handler.RegisterStationRequest{
		ID:               stationID,
		Name:             "Westlands Shell",
		Owner:            owner,
		Geofence:         domain.Geofence{Center: stationCenter, RadiusMeters: 500},
		FuelPricePerUnit: 10_000_000,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/v1/drivers", fleet, handler.RegisterDriverRequest{
		Address:   driver,
		VehicleID: "KDA 123A",
		Limits: handler.SpendingLimitsBody{
			MaxPerTransaction: 10_000_000,
			DailyLimit:        20_000_000,
			WeeklyLimit:       100_000_000,
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestRouter_Health(t *testing.T) {
	router := devRouter(t)

	w := do(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_RedeemFlow(t *testing.T) {
	router := devRouter(t)
	setupNetwork(t, router)

	w := do(t, router, http.MethodPost, "/v1/redemptions", driver, handler.RedeemRequest{
		StationID: stationID,
		Amount:    5_000_000,
		GPS:       stationCenter,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	record := decode[handler.RedemptionResponse](t, w)
	assert.Equal(t, uint64(1), record.Counter)
	assert.Equal(t, int64(5_000_000), record.Units)
	assert.Equal(t, domain.Address(driver), record.Driver)
	assert.Equal(t, "KDA 123A", record.VehicleID)

	w = do(t, router, http.MethodGet, "/v1/redemptions/count", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(1), decode[handler.CountResponse](t, w).Count)

	w = do(t, router, http.MethodGet, "/v1/redemptions/"+record.ID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, record.ID, decode[handler.RedemptionResponse](t, w).ID)

	w = do(t, router, http.MethodGet, "/v1/drivers/"+driver+"/redemptions/last", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, record.ID, decode[handler.RedemptionResponse](t, w).ID)

	w = do(t, router, http.MethodGet, "/v1/drivers/"+driver+"/remaining", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	remaining := decode[handler.RemainingResponse](t, w)
	assert.Equal(t, int64(15_000_000), remaining.Daily)
	assert.Equal(t, int64(95_000_000), remaining.Weekly)
}

func TestRouter_RedeemRejections(t *testing.T) {
	router := devRouter(t)
	setupNetwork(t, router)

	testCases := []struct {
		name       string
		actor      string
		req        handler.RedeemRequest
		wantStatus int
		wantCode   string
	}{
		{
			name:       "outside geofence",
			actor:      driver,
			req:        handler.RedeemRequest{StationID: stationID, Amount: 100, GPS: geo.Point{Lat: -1_276_389, Lng: 36_817_222}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "OUT_OF_GEOFENCE",
		},
		{
			name:       "over transaction limit",
			actor:      driver,
			req:        handler.RedeemRequest{StationID: stationID, Amount: 10_000_001, GPS: stationCenter},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "TRANSACTION_LIMIT_EXCEEDED",
		},
		{
			name:       "unknown station",
			actor:      driver,
			req:        handler.RedeemRequest{StationID: domain.ID{0xEE}, Amount: 100, GPS: stationCenter},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   "STATION_NOT_VERIFIED",
		},
		{
			name:       "unregistered driver",
			actor:      "GSTRANGER",
			req:        handler.RedeemRequest{StationID: stationID, Amount: 100, GPS: stationCenter},
			wantStatus: http.StatusNotFound,
			wantCode:   "DRIVER_NOT_REGISTERED",
		},
		{
			name:       "zero amount",
			actor:      "GOTHER",
			req:        handler.RedeemRequest{StationID: stationID, Amount: 0, GPS: stationCenter},
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_AMOUNT",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, router, http.MethodPost, "/v1/redemptions", tc.actor, tc.req)
			assert.Equal(t, tc.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tc.wantCode, errorCode(t, w))
		})
	}

	w := do(t, router, http.MethodGet, "/v1/redemptions/count", "", nil)
	assert.Equal(t, uint64(0), decode[handler.CountResponse](t, w).Count)
}

func TestRouter_ErrorMapping(t *testing.T) {
	router := devRouter(t)

	// Station registration needs an admin.
	w := do(t, router, http.MethodPost, "/v1/stations", owner, handler.RegisterStationRequest{
		ID:               stationID,
		Name:             "Westlands Shell",
		Owner:            owner,
		Geofence:         domain.Geofence{Center: stationCenter, RadiusMeters: 500},
		FuelPricePerUnit: 10_000_000,
	})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Equal(t, "NOT_INITIALIZED", errorCode(t, w))

	setupNetwork(t, router)

	w = do(t, router, http.MethodPost, "/v1/admin/initialize", "GOTHER", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_INITIALIZED", errorCode(t, w))

	w = do(t, router, http.MethodGet, "/v1/stations/not-hex", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, w))

	w = do(t, router, http.MethodGet, "/v1/stations/"+domain.ID{0xEE}.String(), "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))

	w = do(t, router, http.MethodPut, "/v1/drivers/"+driver+"/limits", "GOTHER", handler.SpendingLimitsBody{DailyLimit: 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, w))

	w = do(t, router, http.MethodPost, "/v1/zones/circular", admin, handler.CreateCircularZoneRequest{
		ID:           domain.ID{0x01},
		Name:         "Depot",
		Center:       stationCenter,
		RadiusMeters: 1_000,
		ZoneType:     "PARKING",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ZONE_TYPE", errorCode(t, w))

	req := httptest.NewRequest(http.MethodPost, "/v1/redemptions", bytes.NewBufferString("{"))
	req.Header.Set(middleware.DevActorHeader, driver)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "BAD_REQUEST", errorCode(t, rec))
}

func TestRouter_ZoneLifecycle(t *testing.T) {
	router := devRouter(t)
	setupNetwork(t, router)

	zoneID := domain.ID{0x01}
	w := do(t, router, http.MethodPost, "/v1/zones/circular", admin, handler.CreateCircularZoneRequest{
		ID:           zoneID,
		Name:         "Nairobi depot",
		Center:       stationCenter,
		RadiusMeters: 1_000,
		ZoneType:     string(domain.ZoneTypeFleetArea),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/v1/zones/circular/"+zoneID.String()+"/validate", "", stationCenter)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decode[handler.ValidResponse](t, w).IsValid)

	w = do(t, router, http.MethodPut, "/v1/fleets/"+fleet+"/zones", admin, handler.AssignFleetZonesRequest{ZoneIDs: []domain.ID{zoneID}})
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = do(t, router, http.MethodPost, "/v1/fleets/"+fleet+"/validate-location", "", geo.Point{Lat: -4_043_500, Lng: 39_668_200})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.False(t, decode[handler.ValidResponse](t, w).IsValid)

	w = do(t, router, http.MethodPost, "/v1/zones/"+zoneID.String()+"/deactivate", admin, nil)
	require.Equal(t, http.StatusNoContent, w.Code, w.Body.String())

	w = do(t, router, http.MethodGet, "/v1/zones/circular/"+zoneID.String(), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[handler.ZoneResponse](t, w).IsActive)

	w = do(t, router, http.MethodGet, "/v1/zones/counts", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(1), decode[handler.CountsResponse](t, w).Zones)
}

func TestRouter_RedeemIsRateLimited(t *testing.T) {
	router := devRouter(t)
	setupNetwork(t, router)

	body := handler.RedeemRequest{StationID: stationID, Amount: 100, GPS: stationCenter}
	for i := 0; i < 3; i++ {
		w := do(t, router, http.MethodPost, "/v1/redemptions", driver, body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := do(t, router, http.MethodPost, "/v1/redemptions", driver, body)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, w))

	// Reads are not throttled.
	w = do(t, router, http.MethodGet, "/v1/redemptions/count", driver, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint64(3), decode[handler.CountResponse](t, w).Count)
}

func TestRouter_BearerAuth(t *testing.T) {
	router := newTestRouter(t, middleware.AuthConfig{Enabled: true, HMACSecret: testSecret, Issuer: "fuelanchor"})

	w := do(t, router, http.MethodPost, "/v1/admin/initialize", admin, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "dev header must be ignored with auth enabled")

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   admin,
		Issuer:    "fuelanchor",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/initialize", nil)
	req.Header.Set("Authorization", "Bearer "+signed)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, domain.Address(admin), decode[handler.AdminResponse](t, rec).Admin)
}
