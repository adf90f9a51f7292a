package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-task-manager/pkg/response"
)

const ctxRealIPKey = "real_ip"

// RealIP stores the client address under "real_ip". Proxy headers are only
// honoured when trustProxy is set; otherwise gin's ClientIP is used as is.
// Header priority: CF-Connecting-IP, then the left-most X-Forwarded-For entry.
func RealIP(trustProxy bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := ""
		if trustProxy {
			ip = forwardedIP(c)
		}
		if ip == "" {
			ip = c.ClientIP()
		}
		c.Set(ctxRealIPKey, ip)
		c.Next()
	}
}

func forwardedIP(c *gin.Context) string {
	if cf := net.ParseIP(strings.TrimSpace(c.GetHeader("CF-Connecting-IP"))); cf != nil {
		return cf.String()
	}
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	return ""
}

// ipFromCtx prefers the address set by RealIP.
func ipFromCtx(c *gin.Context) string {
	if ip := c.GetString(ctxRealIPKey); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return "unknown"
}

// AllowPrivateIP bypasses limits for loopback and RFC 1918 callers (scrapers, health checks).
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		return parsed != nil && (parsed.IsLoopback() || parsed.IsPrivate())
	}
}

// PrivateOnly answers 403 unless the caller is on loopback or a private network.
func PrivateOnly() gin.HandlerFunc {
	allow := AllowPrivateIP()
	return func(c *gin.Context) {
		if !allow(c) {
			response.Abort(c, http.StatusForbidden, "Forbidden", nil)
			return
		}
		c.Next()
	}
}
