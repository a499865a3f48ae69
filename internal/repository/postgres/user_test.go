package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/weave-server/internal/model"
)

func newUserRepoWithMock(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewUserRepository(&Connection{DB: db}), mock
}

func TestNewUserRepository(t *testing.T) {
	db := &Connection{}
	repo := NewUserRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestUserRepository_GetByUsername(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	query := `SELECT id, username, password_hash, email, created_at\s+FROM users WHERE username = \$1`
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		repo, mock := newUserRepoWithMock(t)
		mock.ExpectQuery(query).WithArgs("tarek").
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "email", "created_at"}).
				AddRow(int64(3), "tarek", "{SSHA}abc", "t@example.com", created))

		user, err := repo.GetByUsername(ctx, "tarek")
		require.NoError(t, err)
		assert.Equal(t, model.User{ID: 3, Username: "tarek", PasswordHash: "{SSHA}abc", Email: "t@example.com", CreatedAt: created}, user)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newUserRepoWithMock(t)
		mock.ExpectQuery(query).WithArgs("nobody").WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("failure", func(t *testing.T) {
		repo, mock := newUserRepoWithMock(t)
		mock.ExpectQuery(query).WillReturnError(errors.New("db down"))

		_, err := repo.GetByUsername(ctx, "tarek")
		require.Error(t, err)
		assert.NotErrorIs(t, err, model.ErrNotFound)
		assert.Contains(t, err.Error(), "failed to get user by username")
	})
}

func TestUserRepository_Create(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	query := `INSERT INTO users \(username, password_hash, email, created_at\)`
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	user := model.User{Username: "tarek", PasswordHash: "{SSHA}abc", Email: "t@example.com", CreatedAt: created}

	t.Run("created", func(t *testing.T) {
		repo, mock := newUserRepoWithMock(t)
		mock.ExpectQuery(query).WithArgs("tarek", "{SSHA}abc", "t@example.com", created).
			WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "email", "created_at"}).
				AddRow(int64(11), "tarek", "{SSHA}abc", "t@example.com", created))

		saved, err := repo.Create(ctx, user)
		require.NoError(t, err)
		assert.Equal(t, int64(11), saved.ID)
		assert.Equal(t, "tarek", saved.Username)
	})

	t.Run("username taken", func(t *testing.T) {
		repo, mock := newUserRepoWithMock(t)
		mock.ExpectQuery(query).WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := repo.Create(ctx, user)
		assert.ErrorIs(t, err, model.ErrUserExists)
	})

	t.Run("failure", func(t *testing.T) {
		repo, mock := newUserRepoWithMock(t)
		mock.ExpectQuery(query).WillReturnError(errors.New("db down"))

		_, err := repo.Create(ctx, user)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create user")
	})
}
