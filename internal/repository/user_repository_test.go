package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-console/internal/models"
)

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "role", "active", "last_login", "created_at", "updated_at"}).
		AddRow("1", "editor@example.com", "hash", "Editor", "CONTENT_EDITOR", true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, full_name, role, active, last_login, created_at, updated_at FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("editor@example.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "editor@example.com")
	require.NoError(t, err)
	assert.Equal(t, "editor@example.com", user.Email)
	assert.Equal(t, models.UserRole("CONTENT_EDITOR"), user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRole(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("u1", models.UserRole("VIEWER"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $2")).
		WithArgs("missing", models.UserRole("VIEWER"), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateRole(context.Background(), "u1", "VIEWER"))
	assert.ErrorIs(t, repo.UpdateRole(context.Background(), "missing", "VIEWER"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByRole(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = $1")).
		WithArgs(models.UserRole("VIEWER")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	total, err := repo.CountByRole(context.Background(), "VIEWER")
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}
