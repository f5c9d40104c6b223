package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"hoa-advisor-go/internal/config"
	"hoa-advisor-go/pkg/log"
	"hoa-advisor-go/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit 按 "operation:clientIP" 做固定窗口限流。限流后端出错时放行。
func RateLimit(limiter ratelimit.Limiter, operation string, rule config.LimitRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rule.Limit <= 0 {
			c.Next()
			return
		}
		key := operation + ":" + c.ClientIP()
		res, err := limiter.Allow(c.Request.Context(), key, rule.Limit, rule.Window())
		if err != nil {
			log.Warnf("限流检查失败，放行请求: key=%s, err=%v", key, err)
			c.Next()
			return
		}
		if !res.Allowed {
			c.Header("Retry-After", strconv.Itoa(res.RetryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": fmt.Sprintf("Too many requests. Please try again in %d seconds.", res.RetryAfter),
			})
			return
		}
		c.Next()
	}
}
