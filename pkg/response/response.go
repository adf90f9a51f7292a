// Package response writes the JSON envelope every API answer is wrapped in.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key the request id middleware sets.
const RequestIDKey = "request_id"

type APIResponse[T any] struct {
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      T         `json:"data,omitempty"`
	Meta      any       `json:"meta,omitempty"`
	Error     any       `json:"error,omitempty"`
}

func envelope[T any](c *gin.Context, status int, ok bool, message string) APIResponse[T] {
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now().UTC(),
		RequestID: c.GetString(RequestIDKey),
		Success:   ok,
		Message:   message,
	}
}

// Success builds a success envelope. status 0 means 200.
func Success[T any](c *gin.Context, status int, data T, message string, meta any) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	r := envelope[T](c, status, true, message)
	r.Data = data
	r.Meta = meta
	return r
}

// Error builds a failure envelope. status 0 means 400; detail lands in "error".
func Error(c *gin.Context, status int, message string, detail any) APIResponse[any] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	r := envelope[any](c, status, false, message)
	r.Error = detail
	return r
}

func JSON[T any](c *gin.Context, status int, data T, message string, meta any) {
	r := Success(c, status, data, message, meta)
	c.JSON(r.Status, r)
}

func Fail(c *gin.Context, status int, message string, detail any) {
	r := Error(c, status, message, detail)
	c.JSON(r.Status, r)
}

// Abort is Fail for middleware: the rest of the chain does not run.
func Abort(c *gin.Context, status int, message string, detail any) {
	r := Error(c, status, message, detail)
	c.AbortWithStatusJSON(r.Status, r)
}

// ListResponse always carries "data", so an empty collection reads as [].
type ListResponse[T any] struct {
	APIResponse[[]T]
	Data []T `json:"data"`
}

// List writes a 200 with items as the data array.
func List[T any](c *gin.Context, items []T, message string, meta any) {
	if items == nil {
		items = []T{}
	}
	r := Success(c, http.StatusOK, items, message, meta)
	c.JSON(r.Status, ListResponse[T]{APIResponse: r, Data: items})
}
