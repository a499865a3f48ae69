// Package apierror defines errors that are safe to surface to clients, with
// their HTTP status and gRPC code.
package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
)

// APIError is a client-facing error.
type APIError struct {
	HTTPStatus int
	GRPCCode   codes.Code
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// As extracts an *APIError from err's chain.
func As(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func newUnauthorized(msg string) *APIError {
	return &APIError{HTTPStatus: http.StatusUnauthorized, GRPCCode: codes.Unauthenticated, Message: msg}
}

func newBadRequest(msg string) *APIError {
	return &APIError{HTTPStatus: http.StatusBadRequest, GRPCCode: codes.InvalidArgument, Message: msg}
}

func NewErrUnauthorized() *APIError {
	return newUnauthorized("unauthorized")
}

func NewErrMissingCredentials() *APIError {
	return newUnauthorized("missing credentials")
}

func NewErrInvalidCredentialFormat() *APIError {
	return newUnauthorized("invalid token")
}

func NewErrUsernameMismatch(username string) *APIError {
	return newUnauthorized(fmt.Sprintf("credentials do not match user %q", username))
}

func NewErrUnsupportedFormat(format string) *APIError {
	return newBadRequest(fmt.Sprintf("Unsupported format \"%s\"", format))
}

func NewErrInvalidJSON() *APIError {
	return newBadRequest("malformed JSON body")
}

func NewErrInvalidItem(reasons []string) *APIError {
	return newBadRequest(fmt.Sprintf("invalid item: %v", reasons))
}

func NewErrInvalidParameter(name, value string) *APIError {
	return newBadRequest(fmt.Sprintf("invalid value %q for %s", value, name))
}

func NewErrRegistrationUnsupported() *APIError {
	return newBadRequest("registration is not supported by the active auth scheme")
}

func NewErrUsernameTaken(username string) *APIError {
	return &APIError{HTTPStatus: http.StatusConflict, GRPCCode: codes.AlreadyExists, Message: fmt.Sprintf("username %q is taken", username)}
}

func NewErrItemNotFound(collection, id string) *APIError {
	return &APIError{HTTPStatus: http.StatusNotFound, GRPCCode: codes.NotFound, Message: fmt.Sprintf("record %s/%s not found", collection, id)}
}

func NewErrConfirmationRequired(header string) *APIError {
	return &APIError{HTTPStatus: http.StatusPreconditionFailed, GRPCCode: codes.FailedPrecondition, Message: fmt.Sprintf("missing %s header", header)}
}
