package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/model"
	"github.com/dtroode/weave-server/internal/password"
)

var (
	_ Verifier    = (*SQLVerifier)(nil)
	_ UserCreator = (*SQLVerifier)(nil)
)

// SQLVerifier checks credentials against SSHA hashes kept in a UserStore.
type SQLVerifier struct {
	userStore model.UserStore
	logger    *logger.Logger
}

// NewSQLVerifier creates a verifier backed by userStore.
func NewSQLVerifier(userStore model.UserStore, logger *logger.Logger) *SQLVerifier {
	return &SQLVerifier{userStore: userStore, logger: logger}
}

func (v *SQLVerifier) AuthenticateUser(ctx context.Context, username, pass string) (int64, bool, error) {
	user, err := v.userStore.GetByUsername(ctx, username)
	if errors.Is(err, model.ErrNotFound) {
		v.logger.Info("Auth: unknown user", "username", username)
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get user by username: %w", err)
	}

	if !password.Verify(pass, user.PasswordHash) {
		v.logger.Info("Auth: password mismatch", "username", username)
		return 0, false, nil
	}

	return user.ID, true, nil
}

func (v *SQLVerifier) CreateUser(ctx context.Context, username, pass, email string) (int64, error) {
	hash, err := password.Create(pass, "")
	if err != nil {
		return 0, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := v.userStore.Create(ctx, model.User{
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	v.logger.Info("Auth: user created", "username", username, "user_id", user.ID)
	return user.ID, nil
}

// RegisterDefaults registers the built-in schemes in the process-wide
// registry. It is called once during startup, before any lookup.
func RegisterDefaults(userStore model.UserStore, logger *logger.Logger) {
	Register(SchemeDummy, NewDummyVerifier())
	Register(SchemeSQL, NewSQLVerifier(userStore, logger))
}
