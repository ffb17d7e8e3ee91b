package middleware

import (
	"net/http"
	"strings"

	"github.com/kc-allan/at-insurance/internal/config"
	"github.com/kc-allan/at-insurance/internal/response"
	"github.com/kc-allan/at-insurance/internal/services"

	"github.com/gin-gonic/gin"
)

var tokenService *services.TokenService

// InitAuth initializes the token service used by the middleware
func InitAuth() {
	tokenService = services.NewTokenService()
}

// SetTokenService overrides the token service (used in tests)
func SetTokenService(ts *services.TokenService) {
	tokenService = ts
}

// AuthMiddleware validates the bearer access token and stores the
// farmer's identity in the request context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.ErrorJSON(c, http.StatusUnauthorized, "Missing or malformed Authorization header")
			c.Abort()
			return
		}

		claims, err := tokenService.VerifyToken(strings.TrimPrefix(header, "Bearer "), "access")
		if err != nil {
			response.ErrorJSON(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set("farmer_id", claims.FarmerID)
		c.Set("phone_number", claims.PhoneNumber)
		c.Next()
	}
}

// AdminAuthMiddleware guards back-office endpoints with the configured
// admin API key
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader("X-Admin-API-Key")
		if apiKey == "" {
			apiKey = c.Query("admin_api_key")
		}

		if config.AppConfig.AdminAPIKey == "" || apiKey != config.AppConfig.AdminAPIKey {
			response.ErrorJSON(c, http.StatusUnauthorized, "Invalid admin API key")
			c.Abort()
			return
		}

		c.Next()
	}
}

// FarmerID returns the authenticated farmer's ID from the context
func FarmerID(c *gin.Context) uint {
	if v, exists := c.Get("farmer_id"); exists {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
