package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"panellicense/models"
)

// RateLimiter decides whether the caller identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisRateLimiter is a sliding window limiter shared by every server instance using the same Redis.
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisRateLimiter allows limit requests per window for each key.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: "panellicense:ratelimit",
		now:    time.Now,
	}
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()
	redisKey := fmt.Sprintf("%s:%s:%s", l.prefix, key, l.window)
	windowStart := now.Add(-l.window).UnixNano()

	pipe := l.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, redisKey, "0", strconv.FormatInt(windowStart, 10))
	zcard := pipe.ZCard(ctx, redisKey)
	pipe.ZAdd(ctx, redisKey, redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()})
	pipe.Expire(ctx, redisKey, l.window+time.Minute)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to execute rate limit pipeline: %w", err)
	}
	return zcard.Val() < int64(l.limit), nil
}

// DefaultMaxTrackedClients bounds the number of per-key buckets LocalRateLimiter holds.
const DefaultMaxTrackedClients = 10000

// LocalRateLimiter keeps a token bucket per key in process memory. The least recently seen
// keys are evicted once maxTrackedClients is reached.
type LocalRateLimiter struct {
	mu       sync.Mutex
	limiters *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	burst    int
}

// NewLocalRateLimiter allows requestsPerMinute with the given burst per key.
func NewLocalRateLimiter(requestsPerMinute, burst int) *LocalRateLimiter {
	return NewLocalRateLimiterSize(requestsPerMinute, burst, DefaultMaxTrackedClients)
}

// NewLocalRateLimiterSize is NewLocalRateLimiter with an explicit key bound.
func NewLocalRateLimiterSize(requestsPerMinute, burst, maxTrackedClients int) *LocalRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if maxTrackedClients <= 0 {
		maxTrackedClients = DefaultMaxTrackedClients
	}
	cache, err := lru.New[string, *rate.Limiter](maxTrackedClients)
	if err != nil {
		panic(fmt.Sprintf("rate limiter cache: %v", err))
	}
	return &LocalRateLimiter{
		limiters: cache,
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    burst,
	}
}

func (l *LocalRateLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters.Add(key, limiter)
	}
	l.mu.Unlock()
	return limiter.Allow(), nil
}

// RateLimit rejects callers over the limit with 429, keyed by ips.ClientIP. A nil resolver
// keys on the socket peer. Limiter failures let the request through.
func RateLimit(limiter RateLimiter, ips *ClientIPResolver, log *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			ip := ips.ClientIP(r)
			allowed, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				log.WarnContext(r.Context(), "rate limiter unavailable", "error", err, "ip", ip)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				log.WarnContext(r.Context(), "rate limit exceeded",
					"method", r.Method,
					"path", r.URL.Path,
					"ip", ip,
					"request_id", RequestIDFromContext(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "60")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(models.CodedErrorResponse("Rate limit exceeded", "RATE_LIMITED", ""))
				return
			}
			next.ServeHTTP(w, r)
		}
	}
}
