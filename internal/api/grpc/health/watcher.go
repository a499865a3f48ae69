// Package health drives the gRPC health service from backend readiness.
package health

import (
	"context"
	"time"

	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/model"
)

const (
	// DefaultInterval is how often backends are checked.
	DefaultInterval = 10 * time.Second
	checkTimeout    = 2 * time.Second
)

// Watcher periodically pings backends and publishes the overall serving
// status for the empty service name.
type Watcher struct {
	server   *health.Server
	backends []model.Pinger
	interval time.Duration
	logger   *logger.Logger
}

// NewWatcher creates a Watcher updating server.
func NewWatcher(server *health.Server, interval time.Duration, logger *logger.Logger, backends ...model.Pinger) *Watcher {
	return &Watcher{
		server:   server,
		backends: backends,
		interval: interval,
		logger:   logger,
	}
}

// Check pings every backend once and updates the serving status.
func (w *Watcher) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	for _, b := range w.backends {
		if err := b.Ping(ctx); err != nil {
			w.logger.Warn("Health: backend not ready", "error", err.Error())
			status = healthpb.HealthCheckResponse_NOT_SERVING
			break
		}
	}

	w.server.SetServingStatus("", status)
	return status
}

// Run checks on every tick until ctx is done, then marks the server as
// shutting down.
func (w *Watcher) Run(ctx context.Context) {
	w.Check(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.server.Shutdown()
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
