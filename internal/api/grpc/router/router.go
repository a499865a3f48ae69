package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/weave-server/internal/api/grpc/middleware"
	"github.com/dtroode/weave-server/internal/logger"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

// Router builds the admin gRPC server.
type Router struct {
	extractor middleware.CredentialExtractor
	health    *health.Server
	logger    *logger.Logger
}

// New creates new gRPC Router instance.
func New(extractor middleware.CredentialExtractor, health *health.Server, logger *logger.Logger) *Router {
	return &Router{
		extractor: extractor,
		health:    health,
		logger:    logger,
	}
}

// requiresAuth lets health checks through unauthenticated.
func requiresAuth(_ context.Context, c interceptors.CallMeta) bool {
	return !strings.HasPrefix(c.FullMethod(), healthServicePrefix)
}

// Register creates the gRPC server with logging and authentication
// interceptors and registers the health and reflection services.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.extractor, r.logger)

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.HandleGRPC,
			selector.UnaryServerInterceptor(
				auth.UnaryServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresAuth),
			),
		),
		grpc.ChainStreamInterceptor(
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(requiresAuth),
			),
		),
	)

	healthpb.RegisterHealthServer(s, r.health)
	reflection.Register(s)

	return s
}
