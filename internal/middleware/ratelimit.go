package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"doctrack-platform/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// 超过该数量时清理长时间未访问的地址
const maxTrackedClients = 10000

// RateLimit 按客户端地址限流, 每个地址每个周期最多 Requests 次. 配置了 Redis 时
// 使用固定窗口计数, 多实例共享; 否则使用进程内令牌桶, 桶容量等于 Requests,
// 两种后端都允许一次性用完整个周期的额度. scope 区分不同限流规则的计数.
// 客户端地址取 gin 的 ClientIP: 仅当直连方是受信代理时才读取 X-Forwarded-For,
// 并从右往左取第一个非受信代理地址.
func RateLimit(redisClient *redis.Client, limitConfig *config.Limit, scope string) gin.HandlerFunc {
	if !limitConfig.Enabled || limitConfig.Requests <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	period := time.Duration(limitConfig.PeriodSec) * time.Second
	if period <= 0 {
		period = time.Minute
	}

	var allow func(ctx context.Context, key string) bool
	if redisClient != nil {
		allow = redisWindow(redisClient, scope, limitConfig.Requests, period)
	} else {
		allow = newMemoryLimiter(limitConfig.Requests, period).allow
	}

	return func(c *gin.Context) {
		// 跳过特定路径
		for _, path := range limitConfig.SkipPaths {
			if strings.HasPrefix(c.Request.URL.Path, path) {
				c.Next()
				return
			}
		}

		if !allow(c.Request.Context(), c.ClientIP()) {
			c.String(http.StatusTooManyRequests, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// memoryLimiter 每个地址一个令牌桶
type memoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

func newMemoryLimiter(requests int64, period time.Duration) *memoryLimiter {
	return &memoryLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(requests) / period.Seconds()),
		burst:    int(requests),
		idle:     period,
	}
}

func (m *memoryLimiter) allow(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	v, ok := m.visitors[key]
	if !ok {
		if len(m.visitors) >= maxTrackedClients {
			m.evictIdle(now)
		}
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (m *memoryLimiter) evictIdle(now time.Time) {
	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > m.idle {
			delete(m.visitors, key)
		}
	}
}

// redisWindow 固定窗口计数; Redis 不可用时放行
func redisWindow(client *redis.Client, scope string, requests int64, period time.Duration) func(ctx context.Context, key string) bool {
	return func(ctx context.Context, key string) bool {
		window := time.Now().UnixNano() / int64(period)
		redisKey := fmt.Sprintf("ratelimit:%s:%s:%d", scope, key, window)

		ctx, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()

		pipe := client.TxPipeline()
		incr := pipe.Incr(ctx, redisKey)
		pipe.Expire(ctx, redisKey, period)
		if _, err := pipe.Exec(ctx); err != nil {
			zap.S().Warnf("限流计数失败, 放行请求: %v", err)
			return true
		}
		return incr.Val() <= requests
	}
}
