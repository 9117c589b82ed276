package api

import (
	"errors"
	"net/http"

	"narrative-engine/internal/commands"
	"narrative-engine/internal/models"

	"github.com/gin-gonic/gin"
)

// APIError — тело ответа с ошибкой.
type APIError struct {
	Message string `json:"message"`
}

// statusOf сопоставляет ошибки слоя игры HTTP-статусам.
func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, models.ErrTokenExpired),
		errors.Is(err, models.ErrTokenMalformed),
		errors.Is(err, models.ErrTokenInvalid),
		errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, models.ErrEmptyCommand),
		errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, commands.ErrExecutionFailed):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, models.ErrRootIsStub):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func handleError(c *gin.Context, err error) {
	status, message := statusOf(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, APIError{Message: message})
}
