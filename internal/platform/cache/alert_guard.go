package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAlertGuard records sent alerts in Redis so that separate processes
// (cron runs, CLI runs) deliver a given alert at most once.
type RedisAlertGuard struct {
	rdb       *redis.Client
	namespace string
}

// NewRedisAlertGuard returns a guard storing marks under "<namespace>:<key>".
func NewRedisAlertGuard(rdb *redis.Client, namespace string) *RedisAlertGuard {
	if namespace == "" {
		namespace = "alerts"
	}
	return &RedisAlertGuard{rdb: rdb, namespace: namespace}
}

// MarkOnce は SETNX でキーを登録し、初回のみ true を返します。
func (g *RedisAlertGuard) MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.rdb.SetNX(ctx, g.namespace+":"+safe(key), 1, ttl).Result()
}
