package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/service"
)

// AdminHandler handles initialization and the event log.
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// AdminResponse is the HTTP response for the admin identity.
type AdminResponse struct {
	Admin domain.Address `json:"admin"`
}

// EventResponse is the HTTP response for an event log entry.
type EventResponse struct {
	Seq       int64          `json:"seq"`
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Actor     domain.Address `json:"actor"`
	Topics    []string       `json:"topics"`
	Data      map[string]any `json:"data,omitempty"`
	Ledger    uint64         `json:"ledger"`
	CreatedAt string         `json:"created_at"`
}

// Initialize handles POST /v1/admin/initialize. The caller becomes the admin.
func (h *AdminHandler) Initialize(c *gin.Context) {
	caller := actor(c)
	if err := h.adminService.Initialize(c.Request.Context(), caller); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, AdminResponse{Admin: caller})
}

// GetAdmin handles GET /v1/admin
func (h *AdminHandler) GetAdmin(c *gin.Context) {
	admin, err := h.adminService.Admin(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, AdminResponse{Admin: admin})
}

// Events handles GET /v1/events?after=&limit=
func (h *AdminHandler) Events(c *gin.Context) {
	after, ok := queryInt(c, "after", 0)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	events, err := h.adminService.Events(c.Request.Context(), after, int(limit))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]EventResponse, 0, len(events))
	for _, e := range events {
		response = append(response, EventResponse{
			Seq:       e.Seq,
			ID:        e.ID,
			Type:      string(e.Type),
			Actor:     e.Actor,
			Topics:    e.Topics,
			Data:      e.Data,
			Ledger:    e.Ledger,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	respondJSON(c, http.StatusOK, response)
}
