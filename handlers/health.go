package handlers

import (
	"net/http"
	"time"

	"github.com/HummdG/taza-ticket-clean/config"
	"github.com/HummdG/taza-ticket-clean/database"
	"github.com/HummdG/taza-ticket-clean/utils"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	startedAt time.Time
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

func (hh *HealthHandler) HealthHandler(c *gin.Context) {
	ctx := c.Request.Context()

	mongoOK := database.Healthy(ctx)
	redisOK := utils.CacheHealthy(ctx)

	status := http.StatusOK
	overall := "ok"
	if !mongoOK || !redisOK {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"env":     config.GetEnv(),
		"uptime":  time.Since(hh.startedAt).Round(time.Second).String(),
		"mongodb": mongoOK,
		"redis":   redisOK,
	})
}
