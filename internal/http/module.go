package http

import (
	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
// Each domain module implements this interface to encapsulate its own
// route setup, keeping the main router decoupled from specific endpoints.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router group.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// V1 is the /api/v1 route group.
	V1 *gin.RouterGroup
}

type routeModule struct {
	name     string
	prefix   string
	register func(rg *gin.RouterGroup)
}

// NewModule wraps a handler's route registration as a Module mounted under
// the given prefix of /api/v1.
func NewModule(name, prefix string, register func(rg *gin.RouterGroup)) Module {
	return &routeModule{name: name, prefix: prefix, register: register}
}

func (m *routeModule) Name() string { return m.name }

func (m *routeModule) RegisterRoutes(ctx *RouterContext) {
	m.register(ctx.V1.Group(m.prefix))
}
