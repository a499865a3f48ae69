// Package router wires the storage HTTP API.
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dtroode/weave-server/internal/api/http/handler"
	"github.com/dtroode/weave-server/internal/api/http/middleware"
	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/metrics"
	"github.com/dtroode/weave-server/internal/model"
	"github.com/dtroode/weave-server/internal/service"
)

// Router represents the HTTP router for the storage API.
type Router struct {
	storageService   *service.Storage
	usersService     *service.Users
	extractor        middleware.CredentialExtractor
	identityVerifier model.IdentityVerifier
	contextManager   model.ContextManager
	backends         []model.Pinger
	logger           *logger.Logger
	now              func() time.Time
}

// Option configures a Router.
type Option func(*Router)

// WithTrustedIdentity accepts identity assertions checked by verifier ahead
// of Basic credentials.
func WithTrustedIdentity(verifier model.IdentityVerifier) Option {
	return func(r *Router) {
		r.identityVerifier = verifier
	}
}

// WithReadinessBackends sets the backends pinged by /readyz.
func WithReadinessBackends(backends ...model.Pinger) Option {
	return func(r *Router) {
		r.backends = backends
	}
}

// WithClock replaces the clock used for response timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Router) {
		r.now = now
	}
}

// New creates new HTTP Router instance.
func New(
	storageService *service.Storage,
	usersService *service.Users,
	extractor middleware.CredentialExtractor,
	contextManager model.ContextManager,
	logger *logger.Logger,
	opts ...Option,
) *Router {
	r := &Router{
		storageService: storageService,
		usersService:   usersService,
		extractor:      extractor,
		contextManager: contextManager,
		logger:         logger,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register builds the gin engine with all routes and middleware.
func (r *Router) Register() *gin.Engine {
	metrics.RegisterMetrics()

	e := gin.New()
	e.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.NewLogging(r.logger).Handle,
		middleware.Metrics(),
		middleware.Timestamp(r.now),
	)

	health := handler.NewHealth(r.logger, r.backends...)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.registerUserRoutes(e)
	r.registerStorageRoutes(e)

	return e
}

func (r *Router) registerUserRoutes(e *gin.Engine) {
	users := handler.NewUser(r.usersService, r.logger)
	e.PUT("/user/1.0/:username", users.Register)
}

func (r *Router) registerStorageRoutes(e *gin.Engine) {
	storage := handler.NewStorage(r.storageService, r.contextManager, r.logger)

	g := e.Group("/1.0/:username")
	if r.identityVerifier != nil {
		g.Use(middleware.NewTrustedIdentity(r.identityVerifier, r.contextManager, r.logger).Handle)
	}
	g.Use(middleware.NewAuthenticate(r.extractor, r.logger).Handle)

	g.DELETE("", storage.DeleteStorage)
	g.GET("/info/collections", storage.CollectionTimestamps)
	g.GET("/info/collection_counts", storage.CollectionCounts)
	g.GET("/info/quota", storage.Quota)
	g.GET("/storage/:collection", storage.GetCollection)
	g.POST("/storage/:collection", storage.PostCollection)
	g.DELETE("/storage/:collection", storage.DeleteCollection)
	g.GET("/storage/:collection/:id", storage.GetItem)
	g.PUT("/storage/:collection/:id", storage.PutItem)
	g.DELETE("/storage/:collection/:id", storage.DeleteItem)
}
