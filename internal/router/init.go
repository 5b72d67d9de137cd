package router

import (
	"github.com/oksasatya/almatour-auth/internal/container"
	handlers "github.com/oksasatya/almatour-auth/internal/interface/http"
	"github.com/oksasatya/almatour-auth/internal/router/modules"
)

// InitModules builds every feature module from c and adds it to the registry.
// Call once during startup, before RegisterAll.
func InitModules(r *Registry, c *container.Container) {
	authHandler := handlers.NewAuthHandler(c.Auth, c.Logger)
	r.Add(modules.NewAuthModule(authHandler))

	if c.Config.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
}
