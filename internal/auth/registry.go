// Package auth resolves request credentials to user ids through named,
// pluggable verifiers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownScheme is wrapped by ConfigurationError.
var ErrUnknownScheme = errors.New("unknown auth scheme")

// Verifier checks a username/password pair and returns the user id. ok is
// false when the credentials are rejected.
type Verifier interface {
	AuthenticateUser(ctx context.Context, username, password string) (userID int64, ok bool, err error)
}

// UserCreator is implemented by verifiers that can register new users.
type UserCreator interface {
	CreateUser(ctx context.Context, username, password, email string) (int64, error)
}

// ConfigurationError reports a lookup of a scheme nobody registered. It is a
// server misconfiguration, not a credential failure.
type ConfigurationError struct {
	Scheme string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %q", ErrUnknownScheme, e.Scheme)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrUnknownScheme
}

// Registry maps scheme names to verifiers.
type Registry struct {
	mu        sync.RWMutex
	verifiers map[string]Verifier
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{verifiers: make(map[string]Verifier)}
}

// Register binds name to v, replacing any previous binding.
func (r *Registry) Register(name string, v Verifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.verifiers[name] = v
}

// Get returns the verifier registered under name.
func (r *Registry) Get(name string) (Verifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.verifiers[name]
	if !ok {
		return nil, &ConfigurationError{Scheme: name}
	}
	return v, nil
}

// Names lists registered schemes in lexical order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.verifiers))
	for name := range r.verifiers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// Register binds name to v in the process-wide registry.
func Register(name string, v Verifier) {
	defaultRegistry.Register(name, v)
}

// Get looks name up in the process-wide registry.
func Get(name string) (Verifier, error) {
	return defaultRegistry.Get(name)
}
