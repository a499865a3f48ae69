package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/weave-server/internal/mocks"
	"github.com/dtroode/weave-server/internal/model"
	"github.com/dtroode/weave-server/internal/password"
	"github.com/dtroode/weave-server/internal/testutil"
)

func TestSQLVerifier_AuthenticateUser(t *testing.T) {
	t.Parallel()

	hash, err := password.Create("secret", "")
	require.NoError(t, err)

	tests := []struct {
		name     string
		user     model.User
		storeErr error
		password string
		wantID   int64
		wantOK   bool
		wantErr  bool
	}{
		{
			name:     "valid credentials",
			user:     model.User{ID: 7, Username: "tarek", PasswordHash: hash},
			password: "secret",
			wantID:   7,
			wantOK:   true,
		},
		{
			name:     "wrong password",
			user:     model.User{ID: 7, Username: "tarek", PasswordHash: hash},
			password: "secreT",
		},
		{
			name:     "unknown user",
			storeErr: model.ErrNotFound,
			password: "secret",
		},
		{
			name:     "store failure",
			storeErr: errors.New("db down"),
			password: "secret",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := mocks.NewUserStore(t)
			store.On("GetByUsername", mock.Anything, "tarek").Return(tt.user, tt.storeErr)

			v := NewSQLVerifier(store, testutil.MakeNoopLogger())
			id, ok, err := v.AuthenticateUser(context.Background(), "tarek", tt.password)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestSQLVerifier_CreateUser(t *testing.T) {
	t.Parallel()

	store := mocks.NewUserStore(t)
	store.On("Create", mock.Anything, mock.MatchedBy(func(u model.User) bool {
		return u.Username == "tarek" && u.Email == "t@example.com" && password.Verify("secret", u.PasswordHash)
	})).Return(model.User{ID: 3, Username: "tarek"}, nil)

	v := NewSQLVerifier(store, testutil.MakeNoopLogger())
	id, err := v.CreateUser(context.Background(), "tarek", "secret", "t@example.com")
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
}

func TestSQLVerifier_CreateUser_Taken(t *testing.T) {
	t.Parallel()

	store := mocks.NewUserStore(t)
	store.On("Create", mock.Anything, mock.Anything).Return(model.User{}, model.ErrUserExists)

	v := NewSQLVerifier(store, testutil.MakeNoopLogger())
	_, err := v.CreateUser(context.Background(), "tarek", "secret", "")
	assert.ErrorIs(t, err, model.ErrUserExists)
}

func TestRegisterDefaults(t *testing.T) {
	RegisterDefaults(mocks.NewUserStore(t), testutil.MakeNoopLogger())

	d, err := Get(SchemeDummy)
	require.NoError(t, err)
	assert.IsType(t, &DummyVerifier{}, d)

	s, err := Get(SchemeSQL)
	require.NoError(t, err)
	assert.IsType(t, &SQLVerifier{}, s)
}
