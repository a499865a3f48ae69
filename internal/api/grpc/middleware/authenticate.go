package middleware

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/weave-server/internal/apierror"
	"github.com/dtroode/weave-server/internal/auth"
	"github.com/dtroode/weave-server/internal/logger"
)

// CredentialExtractor resolves request credentials to a user id.
type CredentialExtractor interface {
	Authenticate(ctx context.Context, headers auth.Headers, username string) (context.Context, int64, error)
}

// mdHeaders exposes incoming metadata as auth.Headers. Metadata keys are
// lowercase, so header variants differing only in case collapse.
type mdHeaders metadata.MD

func (h mdHeaders) Get(key string) string {
	if v := metadata.MD(h).Get(strings.ToLower(key)); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Authenticate validates the Basic credential carried in the authorization
// metadata and binds the user id to the context.
type Authenticate struct {
	extractor CredentialExtractor
	logger    *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(extractor CredentialExtractor, logger *logger.Logger) *Authenticate {
	return &Authenticate{extractor: extractor, logger: logger}
}

// AuthFunc is used with the go-grpc-middleware auth interceptors.
func (m *Authenticate) AuthFunc(ctx context.Context) (context.Context, error) {
	md, _ := metadata.FromIncomingContext(ctx)

	newCtx, _, err := m.extractor.Authenticate(ctx, mdHeaders(md), "")
	if err != nil {
		if apiErr, ok := apierror.As(err); ok {
			return nil, status.Error(apiErr.GRPCCode, apiErr.Message)
		}
		m.logger.Error("gRPC auth: credential check failed", "error", err.Error())
		return nil, status.Error(codes.Internal, "internal error")
	}

	return newCtx, nil
}
