package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dtroode/weave-server/internal/apierror"
	"github.com/dtroode/weave-server/internal/auth"
	"github.com/dtroode/weave-server/internal/logger"
	"github.com/dtroode/weave-server/internal/model"
)

const maxUsernameLength = 255

// Users registers accounts through the active verifier when it supports it.
type Users struct {
	verifier auth.Verifier
	logger   *logger.Logger
}

func NewUsers(verifier auth.Verifier, logger *logger.Logger) *Users {
	return &Users{
		verifier: verifier,
		logger:   logger,
	}
}

func (u *Users) Register(ctx context.Context, username, password, email string) (int64, error) {
	creator, ok := u.verifier.(auth.UserCreator)
	if !ok {
		return 0, apierror.NewErrRegistrationUnsupported()
	}

	if username == "" || len(username) > maxUsernameLength {
		return 0, apierror.NewErrInvalidParameter("username", username)
	}
	if password == "" {
		return 0, apierror.NewErrInvalidParameter("password", "")
	}

	userID, err := creator.CreateUser(ctx, username, password, email)
	if errors.Is(err, model.ErrUserExists) {
		u.logger.Info("Users service: username taken", "username", username)
		return 0, apierror.NewErrUsernameTaken(username)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create user: %w", err)
	}

	return userID, nil
}
