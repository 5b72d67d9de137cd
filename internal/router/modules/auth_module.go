package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/almatour-auth/internal/interface/http"
)

// AuthModule mounts the credential endpoints:
// POST /register, POST /login, GET /health
type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/register", m.Handler.Register)
	rg.POST("/login", m.Handler.Login)
	rg.GET("/health", m.Handler.Health)
}
