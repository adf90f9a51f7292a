package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-task-manager/internal/container"
	handlers "github.com/oksasatya/go-task-manager/internal/interface/http"
	"github.com/oksasatya/go-task-manager/internal/interface/middleware"
	"github.com/oksasatya/go-task-manager/internal/router/modules"
	"github.com/oksasatya/go-task-manager/pkg/validation"
)

// New builds the gin engine with global middleware and every module.
func New(c *container.Container) *gin.Engine {
	cfg := c.Config
	validation.Init()

	r := gin.New()
	// proxy headers are read only by RealIP, under TrustProxyHeaders
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RealIP(cfg.TrustProxyHeaders))
	r.Use(middleware.Metrics(c.Metrics))
	// cors panics on an empty origin list
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderRequestID},
			ExposeHeaders:    []string{"Content-Length", middleware.HeaderRequestID},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	reg := NewRegistry(r)
	InitModules(reg, c)
	reg.RegisterAll()
	return r
}

// InitModules wires handlers from the container into route modules.
func InitModules(r *Registry, c *container.Container) {
	if c.Config.HTTPLogEnabled {
		r.Use(middleware.AccessLog(c.Logger))
	}
	gate := middleware.BearerAuth(c.Identity, c.Logger)

	var authLimiter gin.HandlerFunc
	if c.Config.RateLimitEnabled {
		authLimiter = middleware.RateLimit(c.Infra.Redis,
			middleware.Limit{Max: c.Config.AuthRateLimit, Window: c.Config.AuthRateWindow},
			middleware.KeyByIPAndPath(), nil, c.Logger)
	}

	r.Add(modules.NewAuthModule(handlers.NewAuthHandler(c.AuthService, c.Logger), gate, authLimiter))
	r.Add(modules.NewTaskModule(handlers.NewTaskHandler(c.TaskService, c.Logger), gate))

	r.AddRoot(modules.NewHealthModule())
	if c.Config.DebugMetricsEnabled {
		metricsLimiter := middleware.RateLimit(c.Infra.Redis,
			middleware.Limit{Max: 120, Window: time.Minute},
			middleware.KeyByIP(), nil, c.Logger)
		r.AddRoot(modules.NewDebugModule(c.Registry, middleware.PrivateOnly(), metricsLimiter))
	}
}
