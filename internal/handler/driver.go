package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/service"
)

// DriverHandler handles HTTP requests for drivers.
type DriverHandler struct {
	driverService *service.DriverService
}

// NewDriverHandler creates a new DriverHandler.
func NewDriverHandler(driverService *service.DriverService) *DriverHandler {
	return &DriverHandler{driverService: driverService}
}

// SpendingLimitsBody is the JSON form of domain.SpendingLimits.
type SpendingLimitsBody struct {
	MaxPerTransaction int64       `json:"max_per_transaction"`
	DailyLimit        int64       `json:"daily_limit"`
	WeeklyLimit       int64       `json:"weekly_limit"`
	AllowedStations   []domain.ID `json:"allowed_stations"`
}

func (b SpendingLimitsBody) limits() domain.SpendingLimits {
	return domain.SpendingLimits{
		MaxPerTransaction: b.MaxPerTransaction,
		DailyLimit:        b.DailyLimit,
		WeeklyLimit:       b.WeeklyLimit,
		AllowedStations:   b.AllowedStations,
	}
}

// RegisterDriverRequest is the HTTP request body for driver registration.
// The caller becomes the fleet operator.
type RegisterDriverRequest struct {
	Address   domain.Address     `json:"address"`
	VehicleID string             `json:"vehicle_id"`
	Limits    SpendingLimitsBody `json:"limits"`
}

// DriverResponse is the HTTP response for driver data.
type DriverResponse struct {
	Address          domain.Address     `json:"address"`
	FleetOperator    domain.Address     `json:"fleet_operator"`
	VehicleID        string             `json:"vehicle_id"`
	Limits           SpendingLimitsBody `json:"limits"`
	DailySpent       int64              `json:"daily_spent"`
	WeeklySpent      int64              `json:"weekly_spent"`
	LastDailyReset   uint64             `json:"last_daily_reset"`
	LastWeeklyReset  uint64             `json:"last_weekly_reset"`
	IsActive         bool               `json:"is_active"`
	TotalRedemptions uint64             `json:"total_redemptions"`
	RegisteredAt     string             `json:"registered_at"`
}

// RemainingResponse is the HTTP response for remaining allowances.
type RemainingResponse struct {
	Daily  int64 `json:"daily"`
	Weekly int64 `json:"weekly"`
}

func driverResponse(d *domain.Driver) DriverResponse {
	return DriverResponse{
		Address:       d.Address,
		FleetOperator: d.FleetOperator,
		VehicleID:     d.VehicleID,
		Limits: SpendingLimitsBody{
			MaxPerTransaction: d.Limits.MaxPerTransaction,
			DailyLimit:        d.Limits.DailyLimit,
			WeeklyLimit:       d.Limits.WeeklyLimit,
			AllowedStations:   d.Limits.AllowedStations,
		},
		DailySpent:       d.DailySpent,
		WeeklySpent:      d.WeeklySpent,
		LastDailyReset:   d.LastDailyReset,
		LastWeeklyReset:  d.LastWeeklyReset,
		IsActive:         d.IsActive,
		TotalRedemptions: d.TotalRedemptions,
		RegisteredAt:     d.RegisteredAt.Format(time.RFC3339),
	}
}

// Register handles POST /v1/drivers
func (h *DriverHandler) Register(c *gin.Context) {
	var req RegisterDriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	driver, err := h.driverService.RegisterDriver(c.Request.Context(), service.RegisterDriverRequest{
		Actor:     actor(c),
		Address:   req.Address,
		VehicleID: req.VehicleID,
		Limits:    req.Limits.limits(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, driverResponse(driver))
}

// GetDriver handles GET /v1/drivers/:address
func (h *DriverHandler) GetDriver(c *gin.Context) {
	driver, err := h.driverService.GetDriver(c.Request.Context(), domain.Address(c.Param("address")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, driverResponse(driver))
}

// GetRemaining handles GET /v1/drivers/:address/remaining
func (h *DriverHandler) GetRemaining(c *gin.Context) {
	ctx := c.Request.Context()
	address := domain.Address(c.Param("address"))

	daily, err := h.driverService.GetRemainingDailyLimit(ctx, address)
	if err != nil {
		respondError(c, err)
		return
	}
	weekly, err := h.driverService.GetRemainingWeeklyLimit(ctx, address)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, RemainingResponse{Daily: daily, Weekly: weekly})
}

// UpdateLimits handles PUT /v1/drivers/:address/limits
func (h *DriverHandler) UpdateLimits(c *gin.Context) {
	var req SpendingLimitsBody
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	driver, err := h.driverService.UpdateSpendingLimits(c.Request.Context(), actor(c), domain.Address(c.Param("address")), req.limits())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, driverResponse(driver))
}

// Deactivate handles POST /v1/drivers/:address/deactivate
func (h *DriverHandler) Deactivate(c *gin.Context) {
	driver, err := h.driverService.DeactivateDriver(c.Request.Context(), actor(c), domain.Address(c.Param("address")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, driverResponse(driver))
}

// Reactivate handles POST /v1/drivers/:address/reactivate
func (h *DriverHandler) Reactivate(c *gin.Context) {
	driver, err := h.driverService.ReactivateDriver(c.Request.Context(), actor(c), domain.Address(c.Param("address")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, driverResponse(driver))
}

// ListFleet handles GET /v1/fleets/:operator/drivers
func (h *DriverHandler) ListFleet(c *gin.Context) {
	drivers, err := h.driverService.ListFleetDrivers(c.Request.Context(), domain.Address(c.Param("operator")))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]DriverResponse, 0, len(drivers))
	for _, d := range drivers {
		response = append(response, driverResponse(d))
	}
	respondJSON(c, http.StatusOK, response)
}
