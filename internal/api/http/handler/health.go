package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/model"
)

const readinessTimeout = 2 * time.Second

// Health serves liveness and readiness checks.
type Health struct {
	backends []model.Pinger
	logger   *logger.Logger
}

// NewHealth creates a health handler checking backends for readiness.
func NewHealth(logger *logger.Logger, backends ...model.Pinger) *Health {
	return &Health{backends: backends, logger: logger}
}

// Healthz always answers ok while the process serves requests.
func (h *Health) Healthz(c *gin.Context) {
	c.String(http.StatusOK, "ok\n")
}

// Readyz answers ok only when every backend responds.
func (h *Health) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	for _, b := range h.backends {
		if err := b.Ping(ctx); err != nil {
			h.logger.Info("Health handler: backend not ready", "error", err.Error())
			c.String(http.StatusServiceUnavailable, "not ready\n")
			return
		}
	}
	c.String(http.StatusOK, "ready\n")
}
