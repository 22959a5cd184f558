package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/geo"
	"fuelanchor/internal/service"
)

// RedemptionHandler handles HTTP requests for fuel redemptions.
type RedemptionHandler struct {
	redemptionService *service.RedemptionService
}

// NewRedemptionHandler creates a new RedemptionHandler.
func NewRedemptionHandler(redemptionService *service.RedemptionService) *RedemptionHandler {
	return &RedemptionHandler{redemptionService: redemptionService}
}

// RedeemRequest is the HTTP request body for a redemption. The driver is the caller.
type RedeemRequest struct {
	StationID domain.ID `json:"station_id"`
	Amount    int64     `json:"amount"`
	GPS       geo.Point `json:"gps"`
}

// RedemptionResponse is the HTTP response for a redemption record.
type RedemptionResponse struct {
	ID        domain.ID      `json:"id"`
	Counter   uint64         `json:"counter"`
	Driver    domain.Address `json:"driver"`
	StationID domain.ID      `json:"station_id"`
	Amount    int64          `json:"amount"`
	Units     int64          `json:"units"`
	GPS       geo.Point      `json:"gps"`
	Sequence  uint64         `json:"sequence"`
	Timestamp string         `json:"timestamp"`
	VehicleID string         `json:"vehicle_id"`
}

// CountResponse is the HTTP response for the redemption counter.
type CountResponse struct {
	Count uint64 `json:"count"`
}

func redemptionResponse(r *domain.RedemptionRecord) RedemptionResponse {
	return RedemptionResponse{
		ID:        r.ID,
		Counter:   r.Counter,
		Driver:    r.Driver,
		StationID: r.StationID,
		Amount:    r.Amount,
		Units:     r.Units,
		GPS:       r.GPS,
		Sequence:  r.Sequence,
		Timestamp: r.Timestamp.Format(time.RFC3339),
		VehicleID: r.VehicleID,
	}
}

// Redeem handles POST /v1/redemptions
func (h *RedemptionHandler) Redeem(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	caller := actor(c)
	record, err := h.redemptionService.Redeem(c.Request.Context(), service.RedeemRequest{
		Actor:     caller,
		Driver:    caller,
		StationID: req.StationID,
		Amount:    req.Amount,
		GPS:       req.GPS,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, redemptionResponse(record))
}

// GetRedemption handles GET /v1/redemptions/:id
func (h *RedemptionHandler) GetRedemption(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	record, err := h.redemptionService.GetRedemption(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, redemptionResponse(record))
}

// Count handles GET /v1/redemptions/count
func (h *RedemptionHandler) Count(c *gin.Context) {
	count, err := h.redemptionService.Count(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, CountResponse{Count: count})
}

// ListByDriver handles GET /v1/drivers/:address/redemptions?limit=
func (h *RedemptionHandler) ListByDriver(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	records, err := h.redemptionService.ListDriverRedemptions(c.Request.Context(), domain.Address(c.Param("address")), int(limit))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RedemptionResponse, 0, len(records))
	for _, r := range records {
		response = append(response, redemptionResponse(r))
	}
	respondJSON(c, http.StatusOK, response)
}

// LastByDriver handles GET /v1/drivers/:address/redemptions/last
func (h *RedemptionHandler) LastByDriver(c *gin.Context) {
	record, err := h.redemptionService.LastRedemption(c.Request.Context(), domain.Address(c.Param("address")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, redemptionResponse(record))
}
