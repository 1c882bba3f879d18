package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/rekrut-api/pkg/errors"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	failGet error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failGet != nil {
		return c.failGet
	}
	payload, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.entries[key] = payload
	c.mu.Unlock()
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func TestCacheServiceRoundTrip(t *testing.T) {
	repo := newMemoryCache()
	cache := NewCacheService(repo, NewMetricsService(), time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out map[string]string
	assert.False(t, cache.Get(ctx, "k", &out))

	cache.Set(ctx, "k", map[string]string{"a": "b"}, 0)
	assert.True(t, cache.Get(ctx, "k", &out))
	assert.Equal(t, "b", out["a"])

	cache.Invalidate(ctx, "k")
	assert.False(t, cache.Get(ctx, "k", &out))
}

func TestCacheServiceDisabledAndFailing(t *testing.T) {
	ctx := context.Background()
	var out string

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.False(t, nilCache.Get(ctx, "k", &out))

	disabled := NewCacheService(newMemoryCache(), nil, time.Minute, nil, false)
	disabled.Set(ctx, "k", "v", 0)
	assert.False(t, disabled.Get(ctx, "k", &out))

	broken := newMemoryCache()
	broken.failGet = errors.New("connection refused")
	cache := NewCacheService(broken, nil, time.Minute, nil, true)
	assert.False(t, cache.Get(ctx, "k", &out))
}
