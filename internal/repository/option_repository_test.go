package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/content-console/internal/models"
)

func newSQLMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestOptionRepositoryListAppliesFiltersAndPaging(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewOptionRepository(db)

	active := true
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, code AS code FROM batches WHERE 1=1 AND active = $1 AND (LOWER(name) LIKE $2 OR LOWER(code) LIKE $2) ORDER BY name ASC, id ASC LIMIT 10 OFFSET 20")).
		WithArgs(true, "%jee%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code"}).AddRow(int64(7), "JEE 2026", "JEE26"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM batches WHERE 1=1 AND active = $1 AND (LOWER(name) LIKE $2 OR LOWER(code) LIKE $2)")).
		WithArgs(true, "%jee%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	options, total, err := repo.List(context.Background(), models.OptionKindBatch, models.PageQuery{PageNo: 2, PageSize: 10, Search: "JEE", Active: &active})
	require.NoError(t, err)
	require.Len(t, options, 1)
	assert.Equal(t, "JEE 2026 (JEE26)", options[0].Label())
	assert.Equal(t, 21, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptionRepositoryListTagsWithoutCode(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewOptionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, NULL AS code FROM tags WHERE 1=1 AND LOWER(name) LIKE $1 ORDER BY created_at DESC, id ASC LIMIT 5 OFFSET 0")).
		WithArgs("%phy%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "code"}).AddRow(int64(1), "Physics", nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM tags")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	options, _, err := repo.List(context.Background(), models.OptionKindTag, models.PageQuery{PageSize: 5, Search: "phy", SortBy: "created_at", SortDir: models.SortDesc})
	require.NoError(t, err)
	assert.Nil(t, options[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOptionRepositoryUnknownKind(t *testing.T) {
	db, _, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewOptionRepository(db)

	_, _, err := repo.List(context.Background(), models.OptionKind("school"), models.PageQuery{})
	assert.Error(t, err)
}

func TestOptionRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewOptionRepository(db)

	mock.ExpectQuery("SELECT id, name, code AS code FROM exams WHERE id = \\$1").
		WithArgs(int64(3)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), models.OptionKindExam, 3)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestOptionRepositoryExistingIDs(t *testing.T) {
	db, mock, cleanup := newSQLMock(t)
	defer cleanup()
	repo := NewOptionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM batches WHERE id = ANY($1)")).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).AddRow(int64(3)))

	ids, err := repo.ExistingIDs(context.Background(), models.OptionKindBatch, []int64{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
