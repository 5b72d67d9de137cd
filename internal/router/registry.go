package router

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/almatour-auth/pkg/response"
)

const apiPrefix = "/api"

type Registry struct {
	Engine      *gin.Engine
	API         *gin.RouterGroup
	middlewares []gin.HandlerFunc
	modules     []Module
}

func NewRegistry(engine *gin.Engine) *Registry {
	api := engine.Group(apiPrefix)
	return &Registry{Engine: engine, API: api}
}

// Use adds middleware that applies to /api routes only.
func (r *Registry) Use(mw ...gin.HandlerFunc) {
	r.middlewares = append(r.middlewares, mw...)
}

func (r *Registry) Add(mod Module) {
	r.modules = append(r.modules, mod)
}

func (r *Registry) RegisterAll() {
	if len(r.middlewares) > 0 {
		r.API.Use(r.middlewares...)
	}
	for _, m := range r.modules {
		m.Register(r.API)
	}
}

// ServeStatic answers every non-API path from dir. Unknown /api paths get a JSON 404.
// A missing dir leaves non-API paths as plain 404s.
func (r *Registry) ServeStatic(dir string) {
	var files http.Handler
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		files = http.FileServer(http.Dir(dir))
	}
	r.Engine.NoRoute(func(c *gin.Context) {
		p := c.Request.URL.Path
		if p == apiPrefix || strings.HasPrefix(p, apiPrefix+"/") {
			response.Error(c, http.StatusNotFound, "Not found")
			return
		}
		if files == nil || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.Status(http.StatusNotFound)
			return
		}
		files.ServeHTTP(c.Writer, c.Request)
	})
}
