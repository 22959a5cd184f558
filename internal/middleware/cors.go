package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware allows browser wallets to call the API.
func CORSMiddleware() gin.HandlerFunc {
	methods := strings.Join([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}, ", ")
	headers := strings.Join([]string{"Content-Type", "Authorization", idempotencyHeader, DevActorHeader}, ", ")

	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", methods)
		c.Header("Access-Control-Allow-Headers", headers)
		c.Header("Access-Control-Allow-Credentials", "false")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
