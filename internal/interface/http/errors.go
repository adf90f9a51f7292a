package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
	"github.com/oksasatya/go-task-manager/pkg/response"
	"github.com/oksasatya/go-task-manager/pkg/validation"
)

// statusFor is the single mapping from error kind to HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// requestLog carries the fields every handler failure is logged with.
func requestLog(c *gin.Context, logger *logrus.Logger, err error, status int) *logrus.Entry {
	return logger.WithError(err).WithFields(logrus.Fields{
		"request_id": c.GetString(middleware.CtxRequestIDKey),
		"user_id":    c.GetString(middleware.CtxUserIDKey),
		"path":       c.FullPath(),
		"status":     status,
	})
}

// writeError logs err with the request context and writes the envelope.
// Internal failures keep their message.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	status := statusFor(err)
	if logger != nil {
		entry := requestLog(c, logger, err, status)
		if status >= http.StatusInternalServerError {
			entry.Error("request failed")
		} else {
			entry.Debug("request rejected")
		}
	}
	response.Fail(c, status, err.Error(), nil)
}

func writeBindError(c *gin.Context, logger *logrus.Logger, err error) {
	if logger != nil {
		requestLog(c, logger, err, http.StatusBadRequest).Debug("invalid payload")
	}
	response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
}
