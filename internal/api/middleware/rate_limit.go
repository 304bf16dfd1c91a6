package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/redis"
	"github.com/Cyoyuu/UMass-SmartDine-Finder/pkg/response"
)

// Limiter 按 key 限流
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// ── Redis 滑动窗口（多实例共享计数） ──

type redisLimiter struct {
	rdb    *redis.Client
	limit  int
	window time.Duration
}

// NewRedisLimiter 基于 Redis 滑动窗口的限流器
func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) Limiter {
	return &redisLimiter{rdb: rdb, limit: limit, window: window}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.rdb.CheckRateLimit(ctx, key, l.limit, l.window)
}

// ── 进程内令牌桶（未配置 Redis 时使用） ──

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

type localLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	every     rate.Limit
	burst     int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewLocalLimiter 进程内限流：每个 key 一个令牌桶，窗口内最多 limit 次突发
func NewLocalLimiter(limit int, window time.Duration) Limiter {
	if limit <= 0 {
		limit = 1
	}
	return newLocalLimiter(limit, window, time.Now)
}

func newLocalLimiter(limit int, window time.Duration, now func() time.Time) *localLimiter {
	return &localLimiter{
		limiters:  make(map[string]*limiterEntry),
		every:     rate.Every(window / time.Duration(limit)),
		burst:     limit,
		window:    window,
		lastSweep: now(),
		now:       now,
	}
}

func (l *localLimiter) Allow(_ context.Context, key string) (bool, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.window {
		l.sweep(now)
	}
	e, ok := l.limiters[key]
	if !ok {
		e = &limiterEntry{lim: rate.NewLimiter(l.every, l.burst)}
		l.limiters[key] = e
	}
	e.seen = now
	l.mu.Unlock()

	return e.lim.AllowN(now, 1), nil
}

// sweep 清理一个窗口内未出现的 key；闲置满一个窗口的令牌桶已回满，删除不影响计数
// 调用方须持有 mu
func (l *localLimiter) sweep(now time.Time) {
	for k, e := range l.limiters {
		if now.Sub(e.seen) >= l.window {
			delete(l.limiters, k)
		}
	}
	l.lastSweep = now
}

// RateLimit 限流中间件
// scope 区分不同接口的计数；limiter 出错时降级放行
func RateLimit(limiter Limiter, scope string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", scope, c.ClientIP())
		allowed, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("限流检查失败，放行", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			response.TooManyRequests(c)
			c.Abort()
			return
		}

		c.Next()
	}
}
