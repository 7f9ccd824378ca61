// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"glowdesk/config"

	"github.com/go-redis/redis/v8"
)

var (
	// DraftCacheClient holds in-progress booking drafts (one per customer).
	DraftCacheClient *redis.Client
	// DispatchCacheClient holds side-effect dispatch dedup markers.
	DispatchCacheClient *redis.Client
)

// InitDraftCache initializes the Redis client backing booking drafts.
func InitDraftCache() {
	DraftCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDraftDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := DraftCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Drafts): %v", err)
	}
}

// GetDraftCacheClient returns the draft cache client.
func GetDraftCacheClient() *redis.Client {
	if DraftCacheClient == nil {
		InitDraftCache()
	}
	return DraftCacheClient
}

// InitDispatchCache initializes the Redis client for dispatch dedup markers.
func InitDispatchCache() {
	DispatchCacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDispatchDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := DispatchCacheClient.Ping(ctx).Result()
	if err != nil {
		log.Fatalf("Failed to connect to Redis (Dispatch): %v", err)
	}
}

// GetDispatchCacheClient returns the dispatch dedup client.
func GetDispatchCacheClient() *redis.Client {
	if DispatchCacheClient == nil {
		InitDispatchCache()
	}
	return DispatchCacheClient
}
