package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/HummdG/taza-ticket-clean/config"

	"github.com/gin-gonic/gin"
)

// AdminAuthMiddleware guards the admin surface with the configured API key,
// accepted as a Bearer token or an X-Admin-Key header. An unset key
// disables the surface entirely.
func AdminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := config.AppConfig.AdminAPIKey
		if expected == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Admin surface is not configured"})
			return
		}

		provided := c.GetHeader("X-Admin-Key")
		if provided == "" {
			auth := c.GetHeader("Authorization")
			provided = strings.TrimPrefix(auth, "Bearer ")
			if provided == auth {
				provided = ""
			}
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized admin access"})
			return
		}

		c.Set("isAdmin", true)
		c.Next()
	}
}
