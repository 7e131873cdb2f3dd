package middleware

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	cache "go-parley/internal/infrastructure/cache/port"
)

const (
	defaultRateWindow = time.Minute
	defaultRateMax    = 60
)

// RateLimit enforces a fixed-window request cap per user (falling back to
// the client IP before authentication). Counters live in the cache backend
// so the limit holds across instances. A cache outage fails open: chat
// availability beats strict limiting.
func RateLimit(store cache.Cache) gin.HandlerFunc {
	window := defaultRateWindow
	if v := os.Getenv("RATE_LIMIT_WINDOW_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			window = time.Duration(ms) * time.Millisecond
		}
	}
	max := int64(defaultRateMax)
	if v := os.Getenv("RATE_LIMIT_MAX"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			max = n
		}
	}

	return func(c *gin.Context) {
		key := "rl:u:" + UserID(c)
		if UserID(c) == "" {
			key = "rl:ip:" + c.ClientIP()
		}
		key = fmt.Sprintf("%s:%d", key, time.Now().UnixMilli()/window.Milliseconds())

		n, err := store.IncrWindow(c.Request.Context(), key, window)
		if err != nil {
			log.Printf("ratelimit: %v", err)
			c.Next()
			return
		}
		if n > max {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
