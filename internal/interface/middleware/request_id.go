package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oksasatya/go-task-manager/pkg/response"
)

const (
	CtxRequestIDKey = response.RequestIDKey
	HeaderRequestID = "X-Request-ID"
)

// RequestID injects a request_id into the Gin context and echoes it in the response.
// A well-formed uuid supplied by the caller is kept so logs correlate across hops.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(CtxRequestIDKey, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}
