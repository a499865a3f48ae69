package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/weave-server/internal/apierror"
	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/model"
)

func handleError(c *gin.Context, logger *logger.Logger, err error) {
	if apiErr, ok := apierror.As(err); ok {
		c.AbortWithStatusJSON(apiErr.HTTPStatus, gin.H{"error": apiErr.Message})
		return
	}

	if errors.Is(err, model.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	logger.Error("HTTP handler: request failed",
		"path", c.FullPath(),
		"error", err.Error())
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
