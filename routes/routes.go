package routes

import (
	"net/http"
	"time"

	"github.com/HummdG/taza-ticket-clean/handlers"
	"github.com/HummdG/taza-ticket-clean/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWebhookRoutes registers the Twilio WhatsApp surface. Both the
// bare webhook path and the /whatsapp alias are live because Twilio
// consoles get configured with either.
func RegisterWebhookRoutes(r *gin.Engine, wh *handlers.WebhookHandler, sig gin.HandlerFunc) {
	api := r.Group("/webhook")
	{
		api.GET("", wh.Verify)
		api.GET("/whatsapp", wh.Verify)

		guarded := api.Group("")
		guarded.Use(middleware.RateLimitMiddleware(), sig)
		guarded.POST("", wh.Receive)
		guarded.POST("/whatsapp", wh.Receive)
	}
}

// RegisterAdminRoutes registers the key-guarded inspection endpoints.
func RegisterAdminRoutes(r *gin.Engine, ah *handlers.AdminHandler) {
	api := r.Group("/api/admin")
	api.Use(middleware.AdminAuthMiddleware())
	{
		api.GET("/conversations/:userId", ah.GetConversationHandler)
		api.GET("/conversations/:userId/history", ah.GetHistoryHandler)
		api.DELETE("/conversations/:userId", ah.PurgeConversationHandler)
	}
}

func RegisterHealthRoutes(r *gin.Engine, hh *handlers.HealthHandler) {
	r.GET("/health", hh.HealthHandler)
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": "tazaticket", "status": "running"})
	})
}

// CORSMiddleware returns the CORS policy for the API surface.
func CORSMiddleware() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Admin-Key", "X-Twilio-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}
