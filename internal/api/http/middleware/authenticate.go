package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/weave-server/internal/auth"
	"github.com/dtroode/weave-server/internal/logger"
)

// CredentialExtractor resolves the request credential to a user id.
type CredentialExtractor interface {
	Authenticate(ctx context.Context, headers auth.Headers, username string) (context.Context, int64, error)
}

// Authenticate requires a credential matching the :username route parameter
// and binds the user id into the request context.
type Authenticate struct {
	extractor CredentialExtractor
	logger    *logger.Logger
}

// NewAuthenticate creates a new Authenticate middleware instance.
func NewAuthenticate(extractor CredentialExtractor, logger *logger.Logger) *Authenticate {
	return &Authenticate{extractor: extractor, logger: logger}
}

func (m *Authenticate) Handle(c *gin.Context) {
	ctx, _, err := m.extractor.Authenticate(c.Request.Context(), c.Request.Header, c.Param("username"))
	if err != nil {
		abortWithError(c, m.logger, err)
		return
	}

	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
