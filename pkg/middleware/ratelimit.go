package middleware

import (
	"log"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/taskgate/pkg/ratelimit"
)

// RateLimit はクライアントIPごとにリクエスト数を制限するGinミドルウェアを返す。
// リミッターがエラーを返した場合はリクエストを通過させる（fail open）。
func RateLimit(limiter ratelimit.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Printf("[RateLimit] リミッターの呼び出しに失敗: %v", err)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))

		if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			}
			abortWithError(c, http.StatusTooManyRequests, "Too many requests")
			return
		}

		c.Next()
	}
}
