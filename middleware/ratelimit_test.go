package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisRateLimiter_Allow(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client, 3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, allowed, "4th request should be denied")

	allowed, err = limiter.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, allowed, "other keys are independent")
}

func TestRedisRateLimiter_WindowSlides(t *testing.T) {
	client := setupTestRedis(t)
	limiter := NewRedisRateLimiter(client, 1, time.Minute)
	ctx := context.Background()

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	allowed, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, allowed)

	now = now.Add(2 * time.Minute)
	allowed, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLocalRateLimiter_Allow(t *testing.T) {
	limiter := NewLocalRateLimiter(1, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := limiter.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, _ := limiter.Allow(ctx, "a")
	assert.False(t, allowed)

	allowed, _ = limiter.Allow(ctx, "b")
	assert.True(t, allowed)
}

func TestLocalRateLimiter_EvictsLeastRecentKeys(t *testing.T) {
	limiter := NewLocalRateLimiterSize(1, 1, 3)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		_, err := limiter.Allow(ctx, fmt.Sprintf("10.0.0.%d", i))
		require.NoError(t, err)
	}
	assert.Equal(t, 3, limiter.limiters.Len())
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimitMiddleware(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

	handler := RateLimit(NewLocalRateLimiter(60, 1), nil, log)(ok)

	req := httptest.NewRequest(http.MethodPost, "/api/license/validate", nil)
	req.RemoteAddr = "192.0.2.1:5555"

	rec := httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"RATE_LIMITED"`)

	t.Run("fails open", func(t *testing.T) {
		rec := httptest.NewRecorder()
		RateLimit(brokenLimiter{}, nil, log)(ok)(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRateLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	limiter := NewLocalRateLimiter(1, 1)
	handler := RateLimit(limiter, nil, log)(ok)

	allowed := 0
	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/license/activate", nil)
		req.RemoteAddr = "203.0.113.9:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code == http.StatusOK {
			allowed++
		}
	}
	assert.Equal(t, 1, allowed)
	assert.Equal(t, 1, limiter.limiters.Len())
}

func TestRateLimitUsesForwardedForFromTrustedProxy(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	ips, err := NewClientIPResolver([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	handler := RateLimit(NewLocalRateLimiter(1, 1), ips, log)(ok)

	send := func(client string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/license/validate", nil)
		req.RemoteAddr = "10.1.2.3:443"
		req.Header.Set("X-Forwarded-For", client)
		rec := httptest.NewRecorder()
		handler(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("198.51.100.1"))
	assert.Equal(t, http.StatusOK, send("198.51.100.2"))
	// a spoofed leftmost hop does not change the key the proxy appended
	assert.Equal(t, http.StatusTooManyRequests, send("192.0.2.77, 198.51.100.2"))
}
