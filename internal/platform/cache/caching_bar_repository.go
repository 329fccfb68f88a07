// Package cache provides Redis-backed decorators and guards for the prices feature.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"stockpulse/internal/feature/prices/domain/entity"
)

// BarStore is the full bar store surface the decorator wraps.
type BarStore interface {
	UpsertBatch(ctx context.Context, tickerID uint, bars []entity.PriceBar) (entity.UpsertStats, error)
	Latest(ctx context.Context, tickerID uint, count int) ([]entity.PriceBar, error)
	Window(ctx context.Context, tickerID uint, from, to time.Time) ([]entity.PriceBar, error)
	Ping(ctx context.Context) error
}

// CachingBarRepository decorates a BarStore with Redis caching of Window reads.
// Latest is never cached because alert evaluation must see the bars just written.
type CachingBarRepository struct {
	inner     BarStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ BarStore = (*CachingBarRepository)(nil)

// NewCachingBarRepository decorates a BarStore with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "bars".
// A nil rdb disables caching.
func NewCachingBarRepository(rdb *redis.Client, ttl time.Duration, inner BarStore, namespace string) *CachingBarRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "bars"
	}
	return &CachingBarRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// UpsertBatch writes through to the store and then drops every cached window of the ticker.
func (c *CachingBarRepository) UpsertBatch(ctx context.Context, tickerID uint, bars []entity.PriceBar) (entity.UpsertStats, error) {
	stats, err := c.inner.UpsertBatch(ctx, tickerID, bars)
	if err != nil {
		return stats, err
	}
	if c.rdb == nil || len(bars) == 0 {
		return stats, nil
	}
	_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(tickerID)+"*") // best effort
	return stats, nil
}

func (c *CachingBarRepository) Latest(ctx context.Context, tickerID uint, count int) ([]entity.PriceBar, error) {
	return c.inner.Latest(ctx, tickerID, count)
}

func (c *CachingBarRepository) Ping(ctx context.Context) error {
	return c.inner.Ping(ctx)
}

// Window retrieves bars, checking cache first then falling back to the database.
func (c *CachingBarRepository) Window(ctx context.Context, tickerID uint, from, to time.Time) ([]entity.PriceBar, error) {
	if c.rdb == nil {
		return c.inner.Window(ctx, tickerID, from, to)
	}

	key := c.cacheKey(tickerID, from, to)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.PriceBar
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// 破損したキャッシュは削除してDBから読み直す
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.Window(ctx, tickerID, from, to)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

func (c *CachingBarRepository) cacheKey(tickerID uint, from, to time.Time) string {
	return fmt.Sprintf("%s%s:%s",
		c.cacheKeyPrefix(tickerID),
		from.UTC().Format(entity.DateLayout),
		to.UTC().Format(entity.DateLayout),
	)
}

func (c *CachingBarRepository) cacheKeyPrefix(tickerID uint) string {
	return fmt.Sprintf("%s:%d:", safe(c.namespace), tickerID)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingBarRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
