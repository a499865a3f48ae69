package auth

import (
	"context"
	"sync"
)

// SchemeDummy and SchemeSQL are the built-in scheme names.
const (
	SchemeDummy = "dummy"
	SchemeSQL   = "sql"
)

var _ Verifier = (*DummyVerifier)(nil)

// DummyVerifier accepts any password and hands out sequential ids, one per
// distinct username. Meant for development and tests.
type DummyVerifier struct {
	mu    sync.Mutex
	users map[string]int64
}

// NewDummyVerifier creates a DummyVerifier with no known users.
func NewDummyVerifier() *DummyVerifier {
	return &DummyVerifier{users: make(map[string]int64)}
}

func (d *DummyVerifier) AuthenticateUser(_ context.Context, username, _ string) (int64, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	id, ok := d.users[username]
	if !ok {
		id = int64(len(d.users) + 1)
		d.users[username] = id
	}
	return id, true, nil
}
