package handlers

import (
	"context"
	"errors"
	"expvar"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/almatour-auth/internal/application"
	repo "github.com/oksasatya/almatour-auth/internal/domain/repository"
	"github.com/oksasatya/almatour-auth/pkg/response"
	"github.com/oksasatya/almatour-auth/pkg/validation"
)

const (
	msgInvalid       = "Invalid username or password"
	msgTaken         = "This username is already taken"
	msgDatabaseError = "Database error"
	msgServerError   = "Server error"
)

// Stats counts auth outcomes; published under "auth" in /debug/vars.
var Stats = expvar.NewMap("auth")

const healthTimeout = 2 * time.Second

// AuthService is what the handler needs from the application layer.
type AuthService interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Healthy(ctx context.Context) error
}

type AuthHandler struct {
	Svc    AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) entry(c *gin.Context) *logrus.Entry {
	return h.Logger.WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"real_ip":    clientIP(c),
	})
}

func clientIP(c *gin.Context) string {
	if ip := c.GetString("real_ip"); ip != "" {
		return ip
	}
	return c.ClientIP()
}

// Register POST /api/register {username, password}
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.entry(c).WithField("details", validation.ToDetails(err)).Debug("register: bad payload")
		Stats.Add("register_invalid", 1)
		response.Error(c, http.StatusBadRequest, msgInvalid)
		return
	}

	err := h.Svc.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		Stats.Add("register_ok", 1)
		response.Success(c, http.StatusOK)
	case errors.Is(err, application.ErrInvalidInput):
		Stats.Add("register_invalid", 1)
		response.Error(c, http.StatusBadRequest, msgInvalid)
	case errors.Is(err, application.ErrUsernameTaken):
		Stats.Add("register_taken", 1)
		response.Error(c, http.StatusBadRequest, msgTaken)
	default:
		Stats.Add("register_error", 1)
		h.entry(c).WithError(err).Error("register failed")
		if errors.Is(err, repo.ErrStoreUnavailable) {
			response.Error(c, http.StatusInternalServerError, msgDatabaseError)
			return
		}
		response.Error(c, http.StatusInternalServerError, msgServerError)
	}
}

// Login POST /api/login {username, password}
// Unknown user, wrong password and a bad payload all produce the same body.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.entry(c).WithField("details", validation.ToDetails(err)).Debug("login: bad payload")
		Stats.Add("login_invalid", 1)
		response.Error(c, http.StatusBadRequest, msgInvalid)
		return
	}

	err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		Stats.Add("login_ok", 1)
		response.Success(c, http.StatusOK)
	case errors.Is(err, application.ErrInvalidCredentials):
		Stats.Add("login_invalid", 1)
		response.Error(c, http.StatusBadRequest, msgInvalid)
	default:
		Stats.Add("login_error", 1)
		h.entry(c).WithError(err).Error("login failed")
		response.Error(c, http.StatusInternalServerError, msgDatabaseError)
	}
}

// Health GET /api/health
func (h *AuthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.Svc.Healthy(ctx); err != nil {
		h.entry(c).WithError(err).Warn("health check failed")
		response.Error(c, http.StatusServiceUnavailable, msgDatabaseError)
		return
	}
	response.Success(c, http.StatusOK)
}
