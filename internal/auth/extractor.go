package auth

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dtroode/weave-server/internal/apierror"
	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/model"
)

const basicPrefix = "Basic "

// authHeaders lists the header names carrying credentials, depending on how
// the server is deployed behind proxies. The first one present wins.
var authHeaders = []string{
	"Authorization",
	"AUTHORIZATION",
	"HTTP_AUTHORIZATION",
	"REDIRECT_HTTP_AUTHORIZATION",
}

// Headers is satisfied by http.Header and by gRPC metadata adapters.
type Headers interface {
	Get(key string) string
}

// Extractor turns a request's Basic credential into a verified user id.
type Extractor struct {
	verifier       Verifier
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewExtractor creates an Extractor resolving credentials with verifier.
func NewExtractor(verifier Verifier, contextManager model.ContextManager, logger *logger.Logger) *Extractor {
	return &Extractor{verifier: verifier, contextManager: contextManager, logger: logger}
}

// Authenticate returns ctx bound to the authenticated user id. If ctx is
// already bound to a trusted identity it is returned unchanged. A non-empty
// username must match the credential's username.
func (e *Extractor) Authenticate(ctx context.Context, headers Headers, username string) (context.Context, int64, error) {
	if userID, ok := e.contextManager.GetUserIDFromContext(ctx); ok {
		return ctx, userID, nil
	}

	token := findToken(headers)
	if token == "" {
		return nil, 0, apierror.NewErrMissingCredentials()
	}

	user, pass, err := parseBasic(token)
	if err != nil {
		e.logger.Debug("Auth: malformed credential", "error", err)
		return nil, 0, apierror.NewErrInvalidCredentialFormat()
	}

	if username != "" && user != username {
		e.logger.Info("Auth: username mismatch", "username", username, "credential_username", user)
		return nil, 0, apierror.NewErrUsernameMismatch(username)
	}

	userID, ok, err := e.verifier.AuthenticateUser(ctx, user, pass)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to authenticate user: %w", err)
	}
	if !ok {
		return nil, 0, apierror.NewErrUnauthorized()
	}

	return e.contextManager.SetUserIDToContext(ctx, userID), userID, nil
}

func findToken(headers Headers) string {
	for _, name := range authHeaders {
		if v := headers.Get(name); v != "" {
			return v
		}
	}
	return ""
}

func parseBasic(token string) (string, string, error) {
	if !strings.HasPrefix(token, basicPrefix) {
		return "", "", fmt.Errorf("unsupported scheme")
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(token[len(basicPrefix):]))
	if err != nil {
		return "", "", fmt.Errorf("failed to decode credential: %w", err)
	}

	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", fmt.Errorf("credential has no separator")
	}
	return user, pass, nil
}
