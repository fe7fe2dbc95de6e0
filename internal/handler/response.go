package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "pomodoro/internal/errors"
)

func writeData(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}
	_ = c.Error(apiErr)

	c.JSON(apiErr.Status, gin.H{
		"success": false,
		"error":   apiErr.Message,
	})
}
