package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/dtroode/weave-server/internal/apierror"
	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/model"
)

// IdentityHeader carries an identity assertion from a trusted upstream.
const IdentityHeader = "X-Weave-Identity"

// TrustedIdentity binds the user asserted by an upstream proxy, so Basic
// credential checks further down the chain become no-ops.
type TrustedIdentity struct {
	verifier       model.IdentityVerifier
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewTrustedIdentity creates a new TrustedIdentity middleware instance.
func NewTrustedIdentity(verifier model.IdentityVerifier, contextManager model.ContextManager, logger *logger.Logger) *TrustedIdentity {
	return &TrustedIdentity{verifier: verifier, contextManager: contextManager, logger: logger}
}

func (m *TrustedIdentity) Handle(c *gin.Context) {
	token := c.GetHeader(IdentityHeader)
	if token == "" {
		c.Next()
		return
	}

	identity, err := m.verifier.ParseIdentityToken(token)
	if err != nil {
		m.logger.Info("HTTP middleware: rejected identity assertion", "error", err.Error())
		abortWithError(c, m.logger, apierror.NewErrUnauthorized())
		return
	}

	if username := c.Param("username"); username != "" && identity.Username != username {
		abortWithError(c, m.logger, apierror.NewErrUsernameMismatch(username))
		return
	}

	ctx := m.contextManager.SetUserIDToContext(c.Request.Context(), identity.UserID)
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}
