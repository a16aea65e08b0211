package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/program-catalog-api/internal/models"
)

type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string, dest interface{}) error {
	return errors.New("connection refused")
}

func (brokenCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return errors.New("connection refused")
}

func (brokenCache) DeleteByPattern(ctx context.Context, pattern string) error {
	return errors.New("connection refused")
}

func TestRememberLoadsOnceAndCountsHits(t *testing.T) {
	store := newMemCache()
	metrics := NewMetricsService()
	listing := NewListingCache(store, metrics, time.Minute, nil)
	ctx := context.Background()

	loads := 0
	load := func(ctx context.Context) ([]models.Room, error) {
		loads++
		return []models.Room{{ID: 1, Name: "A-101"}}, nil
	}

	first, err := Remember(ctx, listing, "catalog:rooms", load)
	require.NoError(t, err)
	second, err := Remember(ctx, listing, "catalog:rooms", load)
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, first, second)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
}

func TestRememberDoesNotCacheLoadErrors(t *testing.T) {
	store := newMemCache()
	listing := NewListingCache(store, nil, 0, nil)
	ctx := context.Background()

	_, err := Remember(ctx, listing, "catalog:rooms", func(ctx context.Context) ([]models.Room, error) {
		return nil, errors.New("db down")
	})
	require.Error(t, err)
	assert.Empty(t, store.data)

	rooms, err := Remember(ctx, listing, "catalog:rooms", func(ctx context.Context) ([]models.Room, error) {
		return []models.Room{{ID: 2}}, nil
	})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)
	assert.Contains(t, store.data, "catalog:rooms")
}

func TestRememberFallsBackToStoreWhenCacheFails(t *testing.T) {
	listing := NewListingCache(brokenCache{}, NewMetricsService(), 0, nil)
	ctx := context.Background()

	loads := 0
	for i := 0; i < 2; i++ {
		rooms, err := Remember(ctx, listing, "catalog:rooms", func(ctx context.Context) ([]models.Room, error) {
			loads++
			return []models.Room{{ID: 3}}, nil
		})
		require.NoError(t, err)
		assert.Len(t, rooms, 1)
	}
	assert.Equal(t, 2, loads)

	listing.InvalidatePrefix(ctx, "catalog:rooms")
}

func TestNilListingCacheAlwaysLoads(t *testing.T) {
	var listing *ListingCache
	loads := 0
	for i := 0; i < 2; i++ {
		_, err := Remember(context.Background(), listing, "catalog:rooms", func(ctx context.Context) (int, error) {
			loads++
			return loads, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, loads)
	listing.InvalidatePrefix(context.Background(), "catalog:rooms")
}

func TestInvalidatePrefixDropsMatchingKeys(t *testing.T) {
	store := newMemCache()
	listing := NewListingCache(store, nil, 0, nil)
	ctx := context.Background()

	store.data["catalog:constraint_types:active"] = []byte(`[]`)
	store.data["catalog:constraint_types:all"] = []byte(`[]`)
	store.data["catalog:rooms"] = []byte(`[]`)

	listing.InvalidatePrefix(ctx, "catalog:constraint_types")

	assert.NotContains(t, store.data, "catalog:constraint_types:active")
	assert.NotContains(t, store.data, "catalog:constraint_types:all")
	assert.Contains(t, store.data, "catalog:rooms")
	assert.Equal(t, []string{"catalog:constraint_types*"}, store.invalidated)
}
