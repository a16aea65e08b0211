package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/program-catalog-api/pkg/errors"
)

// CacheRepository abstracts persistence for cached payloads.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// ListingCache is a read-through cache for catalog listings. Cache failures
// are logged and counted but never fail the request: the store stays the
// source of truth. Ownership data must not go through it.
type ListingCache struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
}

// NewListingCache builds a cache over repo. A nil *ListingCache is valid and
// always loads from the store.
func NewListingCache(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *ListingCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingCache{repo: repo, metrics: metrics, ttl: ttl, logger: logger}
}

func (c *ListingCache) enabled() bool {
	return c != nil && c.repo != nil
}

// Remember returns the value cached under key, or calls load and caches its
// result. Load errors are returned as-is and nothing is cached for them.
func Remember[T any](ctx context.Context, c *ListingCache, key string, load func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return load(ctx)
	}

	var cached T
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}
	c.store(ctx, key, value)
	return value, nil
}

// InvalidatePrefix drops every entry whose key starts with prefix.
func (c *ListingCache) InvalidatePrefix(ctx context.Context, prefix string) {
	if !c.enabled() {
		return
	}
	pattern := prefix
	if !strings.HasSuffix(pattern, "*") {
		pattern += "*"
	}
	if err := c.repo.DeleteByPattern(ctx, pattern); err != nil {
		c.logger.Warn("cache invalidate failed", zap.String("pattern", pattern), zap.Error(err))
	}
}

func (c *ListingCache) lookup(ctx context.Context, key string, dest interface{}) bool {
	start := time.Now()
	err := c.repo.Get(ctx, key, dest)
	c.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil && !errors.Is(err, appErrors.ErrCacheMiss) {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	return err == nil
}

func (c *ListingCache) store(ctx context.Context, key string, value interface{}) {
	start := time.Now()
	err := c.repo.Set(ctx, key, value, c.ttl)
	c.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}
