package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/internal/domain/entity"
	"github.com/oksasatya/go-task-manager/pkg/response"
)

// Context keys set by BearerAuth.
const (
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
	CtxUserNameKey  = "userName"
	ctxIdentityKey  = "identity"
)

const (
	msgNoToken          = "Not authorized, no token provided"
	msgInvalidToken     = "Not authorized, invalid token"
	msgVerificationFail = "Not authorized, token verification failed"
)

// Identity is the verified caller attached to the request.
type Identity struct {
	ID       string
	Email    string
	Username string
}

// TokenVerifier resolves a bearer token to its user. The identity provider satisfies it.
type TokenVerifier interface {
	GetUser(ctx context.Context, accessToken string) (*entity.User, error)
}

// BearerAuth verifies the Authorization bearer token on every request. Nothing is cached.
func BearerAuth(v TokenVerifier, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, msgNoToken, nil)
			return
		}

		u, err := v.GetUser(c.Request.Context(), token)
		if err != nil {
			msg := msgInvalidToken
			if !errors.Is(err, entity.ErrUnauthorized) {
				msg = msgVerificationFail
				if logger != nil {
					logger.WithError(err).WithField("request_id", c.GetString(CtxRequestIDKey)).Error("token verification failed")
				}
			}
			response.Abort(c, http.StatusUnauthorized, msg, nil)
			return
		}

		id := Identity{ID: u.ID, Email: u.Email, Username: u.DisplayName()}
		c.Set(CtxUserIDKey, id.ID)
		c.Set(CtxUserEmailKey, id.Email)
		c.Set(CtxUserNameKey, id.Username)
		c.Set(ctxIdentityKey, id)
		c.Next()
	}
}

// BearerToken extracts the token from "Authorization: Bearer <token>".
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

// IdentityFrom returns the identity set by BearerAuth.
func IdentityFrom(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok && id.ID != ""
}
