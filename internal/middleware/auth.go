package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"

	"fuelanchor/internal/domain"
	"fuelanchor/internal/logger"
)

// ActorKey is the gin context key holding the authenticated account address.
const ActorKey = "actor"

// DevActorHeader carries the caller's address when authentication is disabled.
const DevActorHeader = "X-Actor-Address"

// AuthConfig configures bearer token authentication.
type AuthConfig struct {
	Enabled    bool
	HMACSecret string
	Issuer     string
	Audience   string
	ClockSkew  time.Duration
}

// AuthMiddleware validates an HMAC-signed JWT and stores its subject as the actor.
// With authentication disabled the actor is read from DevActorHeader.
func AuthMiddleware(cfg AuthConfig) gin.HandlerFunc {
	secret := []byte(strings.TrimSpace(cfg.HMACSecret))
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 2 * time.Minute
	}

	return func(c *gin.Context) {
		if !cfg.Enabled {
			if actor := strings.TrimSpace(c.GetHeader(DevActorHeader)); actor != "" {
				c.Set(ActorKey, domain.Address(actor))
			}
			c.Next()
			return
		}

		tokenString := extractBearer(c.GetHeader("Authorization"))
		if tokenString == "" {
			abortUnauthorized(c, "missing bearer token")
			return
		}

		subject, err := parseSubject(tokenString, secret, cfg)
		if err != nil {
			logger.L().Warn("auth_failed", "path", c.FullPath(), "err", err)
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(ActorKey, domain.Address(subject))
		c.Next()
	}
}

// Actor returns the authenticated account address, or "" for anonymous requests.
func Actor(c *gin.Context) domain.Address {
	if v, ok := c.Get(ActorKey); ok {
		if actor, ok := v.(domain.Address); ok {
			return actor
		}
	}
	return ""
}

func parseSubject(tokenString string, secret []byte, cfg AuthConfig) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("auth secret not configured")
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(cfg.ClockSkew),
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, opts...)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("token invalid")
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("missing subject")
	}
	return subject, nil
}

func extractBearer(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg, "code": "UNAUTHENTICATED"})
}
