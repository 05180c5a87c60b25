// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"github.com/HummdG/taza-ticket-clean/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient is the shared Redis client used for conversation caching.
var CacheClient *redis.Client

// InitCache initializes the Redis cache client.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the conversation cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}

// CacheHealthy reports whether the cache answers a ping.
func CacheHealthy(ctx context.Context) bool {
	if CacheClient == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return CacheClient.Ping(ctx).Err() == nil
}
