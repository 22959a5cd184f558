package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/service"
)

// ZoneHandler handles HTTP requests for zones, corridors and fleet zones.
type ZoneHandler struct {
	zoneService *service.ZoneService
}

// NewZoneHandler creates a new ZoneHandler.
func NewZoneHandler(zoneService *service.ZoneService) *ZoneHandler {
	return &ZoneHandler{zoneService: zoneService}
}

// CreateCircularZoneRequest is the HTTP request body for creating a circular zone.
type CreateCircularZoneRequest struct {
	ID           domain.ID `json:"id"`
	Name         string    `json:"name"`
	Center       geo.Point `json:"center"`
	RadiusMeters uint32    `json:"radius_meters"`
	ZoneType     string    `json:"zone_type"`
}

// CreatePolygonZoneRequest is the HTTP request body for creating a polygon zone.
type CreatePolygonZoneRequest struct {
	ID       domain.ID   `json:"id"`
	Name     string      `json:"name"`
	Vertices []geo.Point `json:"vertices"`
	ZoneType string      `json:"zone_type"`
}

// CreateCorridorRequest is the HTTP request body for creating a corridor.
type CreateCorridorRequest struct {
	ID           domain.ID   `json:"id"`
	Name         string      `json:"name"`
	Start        geo.Point   `json:"start"`
	End          geo.Point   `json:"end"`
	Waypoints    []geo.Point `json:"waypoints"`
	BufferMeters uint32      `json:"buffer_meters"`
}

// AssignFleetZonesRequest is the HTTP request body for assigning fleet zones.
type AssignFleetZonesRequest struct {
	ZoneIDs []domain.ID `json:"zone_ids"`
}

// ZoneResponse is the HTTP response for circular and polygon zones.
type ZoneResponse struct {
	ID           domain.ID   `json:"id"`
	Name         string      `json:"name"`
	Kind         string      `json:"kind"`
	Center       *geo.Point  `json:"center,omitempty"`
	RadiusMeters uint32      `json:"radius_meters,omitempty"`
	Vertices     []geo.Point `json:"vertices,omitempty"`
	ZoneType     string      `json:"zone_type"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    string      `json:"created_at"`
}

// CorridorResponse is the HTTP response for a corridor.
type CorridorResponse struct {
	ID           domain.ID   `json:"id"`
	Name         string      `json:"name"`
	Start        geo.Point   `json:"start"`
	End          geo.Point   `json:"end"`
	Waypoints    []geo.Point `json:"waypoints"`
	BufferMeters uint32      `json:"buffer_meters"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    string      `json:"created_at"`
}

// ValidResponse is the HTTP response for boolean validations.
type ValidResponse struct {
	IsValid bool `json:"is_valid"`
}

// CountsResponse is the HTTP response for zone and corridor counters.
type CountsResponse struct {
	Zones     uint64 `json:"zones"`
	Corridors uint64 `json:"corridors"`
}

func circularResponse(z *domain.CircularZone) ZoneResponse {
	center := z.Center
	return ZoneResponse{
		ID:           z.ID,
		Name:         z.Name,
		Kind:         "circular",
		Center:       &center,
		RadiusMeters: z.RadiusMeters,
		ZoneType:     string(z.ZoneType),
		IsActive:     z.IsActive,
		CreatedAt:    z.CreatedAt.Format(time.RFC3339),
	}
}

func polygonResponse(z *domain.PolygonZone) ZoneResponse {
	return ZoneResponse{
		ID:        z.ID,
		Name:      z.Name,
		Kind:      "polygon",
		Vertices:  z.Vertices,
		ZoneType:  string(z.ZoneType),
		IsActive:  z.IsActive,
		CreatedAt: z.CreatedAt.Format(time.RFC3339),
	}
}

func corridorResponse(c *domain.Corridor) CorridorResponse {
	return CorridorResponse{
		ID:           c.ID,
		Name:         c.Name,
		Start:        c.Start,
		End:          c.End,
		Waypoints:    c.Waypoints,
		BufferMeters: c.BufferMeters,
		IsActive:     c.IsActive,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
}

// CreateCircular handles POST /v1/zones/circular
func (h *ZoneHandler) CreateCircular(c *gin.Context) {
	var req CreateCircularZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	zone, err := h.zoneService.CreateCircularZone(c.Request.Context(), service.CreateCircularZoneRequest{
		Actor:        actor(c),
		ID:           req.ID,
		Name:         req.Name,
		Center:       req.Center,
		RadiusMeters: req.RadiusMeters,
		ZoneType:     domain.ZoneType(req.ZoneType),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, circularResponse(zone))
}

// CreatePolygon handles POST /v1/zones/polygon
func (h *ZoneHandler) CreatePolygon(c *gin.Context) {
	var req CreatePolygonZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	zone, err := h.zoneService.CreatePolygonZone(c.Request.Context(), service.CreatePolygonZoneRequest{
		Actor:    actor(c),
		ID:       req.ID,
		Name:     req.Name,
		Vertices: req.Vertices,
		ZoneType: domain.ZoneType(req.ZoneType),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, polygonResponse(zone))
}

// GetCircular handles GET /v1/zones/circular/:id
func (h *ZoneHandler) GetCircular(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	zone, err := h.zoneService.GetCircularZone(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, circularResponse(zone))
}

// GetPolygon handles GET /v1/zones/polygon/:id
func (h *ZoneHandler) GetPolygon(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	zone, err := h.zoneService.GetPolygonZone(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, polygonResponse(zone))
}

// ValidateCircular handles POST /v1/zones/circular/:id/validate
func (h *ZoneHandler) ValidateCircular(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var point geo.Point
	if err := c.ShouldBindJSON(&point); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.zoneService.ValidateCircular(c.Request.Context(), id, point)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, result)
}

// ValidatePolygon handles POST /v1/zones/polygon/:id/validate
func (h *ZoneHandler) ValidatePolygon(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var point geo.Point
	if err := c.ShouldBindJSON(&point); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	valid, err := h.zoneService.ValidatePolygon(c.Request.Context(), id, point)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, ValidResponse{IsValid: valid})
}

// Deactivate handles POST /v1/zones/:id/deactivate
func (h *ZoneHandler) Deactivate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.zoneService.DeactivateZone(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Counts handles GET /v1/zones/counts
func (h *ZoneHandler) Counts(c *gin.Context) {
	zones, corridors, err := h.zoneService.Counts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, CountsResponse{Zones: zones, Corridors: corridors})
}

// CreateCorridor handles POST /v1/corridors
func (h *ZoneHandler) CreateCorridor(c *gin.Context) {
	var req CreateCorridorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	corridor, err := h.zoneService.CreateCorridor(c.Request.Context(), service.CreateCorridorRequest{
		Actor:        actor(c),
		ID:           req.ID,
		Name:         req.Name,
		Start:        req.Start,
		End:          req.End,
		Waypoints:    req.Waypoints,
		BufferMeters: req.BufferMeters,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, corridorResponse(corridor))
}

// GetCorridor handles GET /v1/corridors/:id
func (h *ZoneHandler) GetCorridor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	corridor, err := h.zoneService.GetCorridor(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, corridorResponse(corridor))
}

// ValidateCorridor handles POST /v1/corridors/:id/validate
func (h *ZoneHandler) ValidateCorridor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var point geo.Point
	if err := c.ShouldBindJSON(&point); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	valid, err := h.zoneService.ValidateCorridor(c.Request.Context(), id, point)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, ValidResponse{IsValid: valid})
}

// DeactivateCorridor handles POST /v1/corridors/:id/deactivate
func (h *ZoneHandler) DeactivateCorridor(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.zoneService.DeactivateCorridor(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AssignFleetZones handles PUT /v1/fleets/:operator/zones
func (h *ZoneHandler) AssignFleetZones(c *gin.Context) {
	var req AssignFleetZonesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	operator := domain.Address(c.Param("operator"))
	if err := h.zoneService.AssignFleetZones(c.Request.Context(), actor(c), operator, req.ZoneIDs); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ValidateFleetLocation handles POST /v1/fleets/:operator/validate-location
func (h *ZoneHandler) ValidateFleetLocation(c *gin.Context) {
	var point geo.Point
	if err := c.ShouldBindJSON(&point); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	valid, err := h.zoneService.ValidateFleetLocation(c.Request.Context(), domain.Address(c.Param("operator")), point)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, ValidResponse{IsValid: valid})
}
