package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/rekrut-api/internal/service"
)

func TestMemoryLimiterWindow(t *testing.T) {
	limiter := NewMemoryLimiter()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := limiter.Allow(ctx, "k", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := limiter.Allow(ctx, "k", 2, time.Minute)
	assert.False(t, ok)

	other, _ := limiter.Allow(ctx, "other", 2, time.Minute)
	assert.True(t, other)

	now = now.Add(2 * time.Minute)
	ok, _ = limiter.Allow(ctx, "k", 2, time.Minute)
	assert.True(t, ok)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string, int, time.Duration) (bool, error) {
	return true, errors.New("redis down")
}

func limitedRouter(limiter Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	cfg := RateLimitConfig{Name: "intake", Limit: 1, Window: time.Minute}
	router.POST("/submissions", RateLimit(limiter, cfg, service.NewMetricsService(), nil), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})
	return router
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	router := limitedRouter(NewMemoryLimiter())

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/submissions", nil))
	assert.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/submissions", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))
}

func TestRateLimitFailsOpen(t *testing.T) {
	router := limitedRouter(brokenLimiter{})
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/submissions", nil))
		assert.Equal(t, http.StatusCreated, rec.Code)
	}
}
