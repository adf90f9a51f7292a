package modules

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oksasatya/go-task-manager/internal/metrics"
)

// DebugModule serves Prometheus metrics at /metrics behind Guards.
type DebugModule struct {
	Gatherer prometheus.Gatherer
	Guards   []gin.HandlerFunc
}

func NewDebugModule(g prometheus.Gatherer, guards ...gin.HandlerFunc) *DebugModule {
	return &DebugModule{Gatherer: g, Guards: guards}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	chain := append(append([]gin.HandlerFunc{}, m.Guards...), gin.WrapH(metrics.Handler(m.Gatherer)))
	rg.GET("/metrics", chain...)
}

// HealthModule answers GET / for load balancers.
type HealthModule struct{}

func NewHealthModule() *HealthModule { return &HealthModule{} }

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Task Manager API is running")
	})
}
