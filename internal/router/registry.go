package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/go-task-manager/pkg/response"
)

// Module registers a feature's routes on a group.
type Module interface {
	Register(rg *gin.RouterGroup)
}

// ModuleFunc lets a plain function act as a Module.
type ModuleFunc func(rg *gin.RouterGroup)

func (f ModuleFunc) Register(rg *gin.RouterGroup) { f(rg) }

// Registry collects modules until RegisterAll mounts them. API modules sit
// under /api behind the API middleware; root modules are mounted at /.
type Registry struct {
	Engine *gin.Engine

	apiPrefix string
	apiMW     []gin.HandlerFunc
	api       []Module
	root      []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	return &Registry{Engine: engine, apiPrefix: "/api"}
}

// Use adds middleware to the /api group only.
func (r *Registry) Use(mw ...gin.HandlerFunc) { r.apiMW = append(r.apiMW, mw...) }

func (r *Registry) Add(m Module) { r.api = append(r.api, m) }

func (r *Registry) AddRoot(m Module) { r.root = append(r.root, m) }

// RegisterAll mounts every module and answers unknown routes with the
// standard error envelope.
func (r *Registry) RegisterAll() {
	api := r.Engine.Group(r.apiPrefix, r.apiMW...)
	for _, m := range r.api {
		m.Register(api)
	}
	for _, m := range r.root {
		m.Register(&r.Engine.RouterGroup)
	}
	r.Engine.NoRoute(func(c *gin.Context) {
		response.Fail(c, http.StatusNotFound, "Route not found", nil)
	})
}
