package di

import (
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	priceadapters "stockpulse/internal/feature/prices/adapters"
	"stockpulse/internal/feature/prices/usecase"
	"stockpulse/internal/platform/cache"
)

// NewAlertGuard returns a Redis-backed guard when Redis is available so that
// separate processes share delivery marks. Otherwise it falls back to an in-process guard.
func NewAlertGuard(rdb *redis.Client) usecase.AlertGuard {
	if rdb != nil {
		return cache.NewRedisAlertGuard(rdb, "alerts")
	}
	return usecase.NewMemoryGuard()
}

// NewBarStore wraps the gorm bar repository with the Redis window cache.
// With a nil rdb the cache is a pass-through.
func NewBarStore(db *gorm.DB, rdb *redis.Client, ttl time.Duration) *cache.CachingBarRepository {
	return cache.NewCachingBarRepository(rdb, ttl, priceadapters.NewBarRepository(db), "bars")
}
