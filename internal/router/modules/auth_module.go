package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-task-manager/internal/interface/http"
)

// AuthModule mounts /auth. Public endpoints share one per-route, per-IP limiter.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Gate    gin.HandlerFunc
	Limiter gin.HandlerFunc
}

func NewAuthModule(h *handlers.AuthHandler, gate gin.HandlerFunc, limiter gin.HandlerFunc) *AuthModule {
	if limiter == nil {
		limiter = func(c *gin.Context) { c.Next() }
	}
	return &AuthModule{Handler: h, Gate: gate, Limiter: limiter}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.POST("/register", m.Limiter, m.Handler.Register)
	auth.POST("/login", m.Limiter, m.Handler.Login)
	auth.POST("/refresh", m.Limiter, m.Handler.Refresh)
	auth.POST("/confirm", m.Limiter, m.Handler.Confirm)
	auth.POST("/confirm/resend", m.Limiter, m.Handler.ResendConfirmation)
	auth.POST("/logout", m.Handler.Logout)

	auth.GET("/me", m.Gate, m.Handler.Me)
}
