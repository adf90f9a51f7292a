package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-task-manager/internal/metrics"
)

// Metrics records method, matched route, status and latency for every request.
func Metrics(rec metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		rec.RecordRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
