package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every /api endpoint answers with.
// Message is omitted on success.
type APIResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Success writes {"ok":true} with the given status (200 when zero).
func Success(ctx *gin.Context, status int) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, APIResponse{OK: true})
}

// Error writes {"ok":false,"message":...} and stops the handler chain.
func Error(ctx *gin.Context, status int, message string) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	ctx.AbortWithStatusJSON(status, APIResponse{OK: false, Message: message})
}
