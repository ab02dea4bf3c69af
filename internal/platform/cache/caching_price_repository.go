// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bb_monitor/internal/feature/quotes/domain/entity"
	"bb_monitor/internal/feature/quotes/usecase"
)

// CachingPriceRepository decorates a PriceRepository with Redis caching for
// read queries. Freshness probes (HasDate, HasOnOrAfter, MaxDate) always pass
// through to the store: the freshness engine must never see cached answers,
// only the presentation reads (LastN) are cacheable.
type CachingPriceRepository struct {
	inner     usecase.PriceRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// NewCachingPriceRepository decorates a PriceRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "prices".
func NewCachingPriceRepository(rdb *redis.Client, ttl time.Duration, inner usecase.PriceRepository, namespace string) *CachingPriceRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "prices"
	}
	return &CachingPriceRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

var _ usecase.PriceRepository = (*CachingPriceRepository)(nil)

// UpsertBatch inserts or updates rows and invalidates related cache entries.
func (c *CachingPriceRepository) UpsertBatch(ctx context.Context, rows []entity.PriceRow) error {
	if err := c.inner.UpsertBatch(ctx, rows); err != nil {
		return err
	}
	if c.rdb == nil || len(rows) == 0 {
		return nil
	}

	// Invalidate affected cache entries (keys per ticker+interval)
	seen := map[string]struct{}{}
	for _, r := range rows {
		prefix := c.cacheKeyPrefix(r.Ticker, string(r.Interval))
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		_ = c.deleteByPattern(ctx, prefix+"*") // Best effort
	}
	return nil
}

// LastN retrieves rows, checking cache first then falling back to the store.
func (c *CachingPriceRepository) LastN(ctx context.Context, ticker string, interval entity.Interval, limit int) ([]entity.PriceRow, error) {
	if c.rdb == nil {
		return c.inner.LastN(ctx, ticker, interval, limit)
	}

	key := c.cacheKey(ticker, string(interval), limit)

	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.PriceRow
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	out, err := c.inner.LastN(ctx, ticker, interval, limit)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// HasDate always hits the store.
func (c *CachingPriceRepository) HasDate(ctx context.Context, ticker string, interval entity.Interval, date string) (bool, error) {
	return c.inner.HasDate(ctx, ticker, interval, date)
}

// HasOnOrAfter always hits the store.
func (c *CachingPriceRepository) HasOnOrAfter(ctx context.Context, ticker string, interval entity.Interval, date string) (bool, error) {
	return c.inner.HasOnOrAfter(ctx, ticker, interval, date)
}

// MaxDate always hits the store.
func (c *CachingPriceRepository) MaxDate(ctx context.Context, ticker string, interval entity.Interval) (string, error) {
	return c.inner.MaxDate(ctx, ticker, interval)
}

// cacheKey generates a cache key for a specific query.
func (c *CachingPriceRepository) cacheKey(ticker, interval string, limit int) string {
	return fmt.Sprintf("%s:%s:%s:%d",
		c.namespace,
		safe(ticker),
		safe(interval),
		limit,
	)
}

// cacheKeyPrefix generates a prefix for invalidating related cache entries.
func (c *CachingPriceRepository) cacheKeyPrefix(ticker, interval string) string {
	return fmt.Sprintf("%s:%s:%s:",
		c.namespace,
		safe(ticker),
		safe(interval),
	)
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingPriceRepository) deleteByPattern(ctx context.Context, pattern string) error {
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
	return strings.ReplaceAll(s, ":", "_")
}
