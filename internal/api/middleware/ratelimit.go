package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/taufiqulumam/task-management/internal/pkg/metrics"
	"github.com/taufiqulumam/task-management/internal/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit 按客户端 IP 对敏感接口（登录、找回密码等）限流。
//
// 桶空时直接返回 429；Redis 不可用时放行并记录告警，限流只是保护层，
// 不能因为它挂掉而拒绝所有登录。
func RateLimit(limiter *ratelimit.RateLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		allowed, err := limiter.Allow(ctx, c.ClientIP(), time.Now().UnixMilli())
		if err != nil {
			if logger != nil {
				logger.Warn("rate limit check failed", slog.String("error", err.Error()))
			}
			c.Next()
			return
		}
		if !allowed {
			metrics.RateLimitedTotal.Inc()
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}
