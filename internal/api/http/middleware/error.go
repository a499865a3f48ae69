package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/weave-server/internal/apierror"
	"github.com/dtroode/weave-server/internal/logger"
)

func abortWithError(c *gin.Context, logger *logger.Logger, err error) {
	if apiErr, ok := apierror.As(err); ok {
		c.AbortWithStatusJSON(apiErr.HTTPStatus, gin.H{"error": apiErr.Message})
		return
	}

	logger.Error("HTTP middleware: request failed",
		"path", c.Request.URL.Path,
		"error", err.Error())
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
