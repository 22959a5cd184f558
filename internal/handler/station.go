package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/service"
)

const defaultNearbyRadiusKm = 5.0

// StationHandler handles HTTP requests for stations.
type StationHandler struct {
	stationService *service.StationService
}

// NewStationHandler creates a new StationHandler.
func NewStationHandler(stationService *service.StationService) *StationHandler {
	return &StationHandler{stationService: stationService}
}

// RegisterStationRequest is the HTTP request body for station registration.
type RegisterStationRequest struct {
	ID               domain.ID       `json:"id"`
	Name             string          `json:"name"`
	Owner            domain.Address  `json:"owner"`
	Geofence         domain.Geofence `json:"geofence"`
	FuelPricePerUnit int64           `json:"fuel_price_per_unit"`
}

// UpdatePriceRequest is the HTTP request body for a price change.
type UpdatePriceRequest struct {
	FuelPricePerUnit int64 `json:"fuel_price_per_unit"`
}

// StationResponse is the HTTP response for station data.
type StationResponse struct {
	ID               domain.ID       `json:"id"`
	Name             string          `json:"name"`
	Owner            domain.Address  `json:"owner"`
	Geofence         domain.Geofence `json:"geofence"`
	IsActive         bool            `json:"is_active"`
	FuelPricePerUnit int64           `json:"fuel_price_per_unit"`
	TotalRedemptions uint64          `json:"total_redemptions"`
	RegisteredAt     string          `json:"registered_at"`
	DistanceKm       *float64        `json:"distance_km,omitempty"`
}

func stationResponse(s *domain.Station) StationResponse {
	return StationResponse{
		ID:               s.ID,
		Name:             s.Name,
		Owner:            s.Owner,
		Geofence:         s.Geofence,
		IsActive:         s.IsActive,
		FuelPricePerUnit: s.FuelPricePerUnit,
		TotalRedemptions: s.TotalRedemptions,
		RegisteredAt:     s.RegisteredAt.Format(time.RFC3339),
	}
}

// Register handles POST /v1/stations
func (h *StationHandler) Register(c *gin.Context) {
	var req RegisterStationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	station, err := h.stationService.RegisterStation(c.Request.Context(), service.RegisterStationRequest{
		Actor:            actor(c),
		ID:               req.ID,
		Name:             req.Name,
		Owner:            req.Owner,
		Geofence:         req.Geofence,
		FuelPricePerUnit: req.FuelPricePerUnit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, stationResponse(station))
}

// GetAll handles GET /v1/stations
func (h *StationHandler) GetAll(c *gin.Context) {
	stations, err := h.stationService.ListStations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]StationResponse, 0, len(stations))
	for _, s := range stations {
		response = append(response, stationResponse(s))
	}
	respondJSON(c, http.StatusOK, response)
}

// GetStation handles GET /v1/stations/:id
func (h *StationHandler) GetStation(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	station, err := h.stationService.GetStation(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, stationResponse(station))
}

// GetByOwner handles GET /v1/stations/owner/:owner
func (h *StationHandler) GetByOwner(c *gin.Context) {
	station, err := h.stationService.GetStationByOwner(c.Request.Context(), domain.Address(c.Param("owner")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, stationResponse(station))
}

// Nearby handles GET /v1/stations/nearby?lat=&lng=&radius_km=
func (h *StationHandler) Nearby(c *gin.Context) {
	lat, ok := queryInt(c, "lat", 0)
	if !ok {
		return
	}
	lng, ok := queryInt(c, "lng", 0)
	if !ok {
		return
	}
	radius := defaultNearbyRadiusKm
	if raw := c.Query("radius_km"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondBadRequest(c, "invalid radius_km")
			return
		}
		radius = v
	}

	nearby, err := h.stationService.NearbyStations(c.Request.Context(), geo.Point{Lat: lat, Lng: lng}, radius)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]StationResponse, 0, len(nearby))
	for _, n := range nearby {
		r := stationResponse(n.Station)
		distance := n.DistanceKm
		r.DistanceKm = &distance
		response = append(response, r)
	}
	respondJSON(c, http.StatusOK, response)
}

// UpdatePrice handles PUT /v1/stations/:id/price
func (h *StationHandler) UpdatePrice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	station, err := h.stationService.UpdateFuelPrice(c.Request.Context(), actor(c), id, req.FuelPricePerUnit)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, stationResponse(station))
}

// Deactivate handles POST /v1/stations/:id/deactivate
func (h *StationHandler) Deactivate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.stationService.DeactivateStation(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
