package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/middleware"
	"fuelanchor/internal/repository"
	"fuelanchor/internal/service"
)

// ErrorResponse represents an error response. Code is stable across releases;
// Error is for humans.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	status := mapErrorToHTTPStatus(err)
	code := service.Code(err)
	c.Set(middleware.ErrorCodeKey, code)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, ErrorResponse{Error: "internal error", Code: code})
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

// respondBadRequest sends a 400 for malformed input.
func respondBadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "BAD_REQUEST"})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors, including unregistered drivers.
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidAddress),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidGeometry),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	// Authorization errors
	case errors.Is(err, service.ErrUnauthorized),
		errors.Is(err, service.ErrDriverDeactivated):
		return http.StatusForbidden

	// Conflict errors
	case errors.Is(err, repository.ErrAlreadyExists),
		errors.Is(err, service.ErrAlreadyInitialized):
		return http.StatusConflict

	case errors.Is(err, service.ErrNotInitialized):
		return http.StatusPreconditionFailed

	// Redemption rejections
	case errors.Is(err, service.ErrStationNotVerified),
		errors.Is(err, service.ErrOutOfGeofence),
		errors.Is(err, service.ErrTransactionLimitExceeded),
		errors.Is(err, service.ErrDailyLimitExceeded),
		errors.Is(err, service.ErrWeeklyLimitExceeded):
		return http.StatusUnprocessableEntity

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// actor returns the authenticated caller.
func actor(c *gin.Context) domain.Address {
	return middleware.Actor(c)
}

// pathID parses the :id route parameter.
func pathID(c *gin.Context) (domain.ID, bool) {
	id, err := domain.ParseID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return domain.ID{}, false
	}
	return id, true
}

// queryInt reads an integer query parameter, falling back to def.
func queryInt(c *gin.Context, name string, def int64) (int64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
