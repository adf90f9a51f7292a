package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/pkg/response"
)

// KeyFunc builds a rate-limit key from the request.
type KeyFunc func(c *gin.Context) string

// AllowFunc returns true to bypass the limit.
type AllowFunc func(*gin.Context) bool

// Limit is a fixed window budget.
type Limit struct {
	Max    int
	Window time.Duration
}

func normalizePath(c *gin.Context) string {
	if fp := c.FullPath(); fp != "" {
		return fp
	}
	return c.Request.URL.Path
}

// KeyByIP limits by client address across all routes sharing the limiter.
func KeyByIP() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:ip:" + ipFromCtx(c)
	}
}

// KeyByIPAndPath gives every route its own budget per client address.
func KeyByIPAndPath() KeyFunc {
	return func(c *gin.Context) string {
		return "rl:path:" + normalizePath(c) + ":ip:" + ipFromCtx(c)
	}
}

// windowHit counts one hit and returns {count, ms until the window resets}.
// The expiry is set on the first hit of a window.
var windowHit = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {n, redis.call("PTTL", KEYS[1])}
`)

// hit returns the request count in the current window and the seconds left.
func hit(c *gin.Context, rdb *redis.Client, key string, window time.Duration) (int, int, error) {
	res, err := windowHit.Run(c.Request.Context(), rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("rate limit script returned %d values", len(res))
	}
	reset := 0
	if ttl := time.Duration(res[1]) * time.Millisecond; ttl > 0 {
		reset = int((ttl + time.Second - 1) / time.Second)
	}
	return int(res[0]), reset, nil
}

// RateLimit enforces lim per key in Redis. It fails open when Redis errors,
// skips OPTIONS preflights and sets X-RateLimit-* headers.
func RateLimit(rdb *redis.Client, lim Limit, keyFn KeyFunc, allow AllowFunc, logger *logrus.Logger) gin.HandlerFunc {
	if rdb == nil || lim.Max <= 0 || lim.Window <= 0 || keyFn == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if allow != nil && allow(c) {
			c.Next()
			return
		}
		if strings.EqualFold(c.Request.Method, http.MethodOptions) {
			c.Next()
			return
		}

		key := keyFn(c)
		count, resetSec, err := hit(c, rdb, key, lim.Window)
		if err != nil {
			if logger != nil {
				logger.WithError(err).WithField("key", key).Warn("rate limiter unavailable, allowing request")
			}
			c.Next()
			return
		}

		remaining := lim.Max - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(lim.Max))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(resetSec))

		if count > lim.Max {
			if resetSec > 0 {
				c.Header("Retry-After", strconv.Itoa(resetSec))
			}
			response.Abort(c, http.StatusTooManyRequests, "rate limit exceeded", nil)
			return
		}
		c.Next()
	}
}
