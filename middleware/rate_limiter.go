package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/HummdG/taza-ticket-clean/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// rateLimiterStore maps a sender key to its limiter.
type rateLimiterStore struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
}

var limiterStore = &rateLimiterStore{
	limiters: make(map[string]*rate.Limiter),
}

func (s *rateLimiterStore) getLimiter(key string, perMinute int) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		s.limiters[key] = limiter
	}
	return limiter
}

// RateLimitMiddleware limits webhook traffic per sender. Twilio posts the
// sender in the From form field; anything without one is keyed by client IP.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		perMinute := config.AppConfig.MaxRequestsPerMin
		if perMinute <= 0 {
			perMinute = 60
		}

		key := c.PostForm("From")
		if key == "" {
			key = getClientIP(c)
		}

		if !limiterStore.getLimiter(key, perMinute).Allow() {
			zap.L().Warn("rate limit exceeded", zap.String("sender", key))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded. Try again later."})
			return
		}
		c.Next()
	}
}
