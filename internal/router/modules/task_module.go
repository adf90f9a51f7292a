package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/go-task-manager/internal/interface/http"
)

// TaskModule mounts /tasks; every route requires a verified bearer token.
type TaskModule struct {
	Handler *handlers.TaskHandler
	Gate    gin.HandlerFunc
}

func NewTaskModule(h *handlers.TaskHandler, gate gin.HandlerFunc) *TaskModule {
	return &TaskModule{Handler: h, Gate: gate}
}

func (m *TaskModule) Register(rg *gin.RouterGroup) {
	tasks := rg.Group("/tasks")
	tasks.Use(m.Gate)
	{
		tasks.GET("", m.Handler.List)
		tasks.GET("/search", m.Handler.Search)
		tasks.POST("", m.Handler.Create)
		tasks.GET("/:id", m.Handler.Get)
		tasks.PUT("/:id", m.Handler.Update)
		tasks.PATCH("/:id/toggle", m.Handler.Toggle)
		tasks.DELETE("/:id", m.Handler.Delete)
	}
}
