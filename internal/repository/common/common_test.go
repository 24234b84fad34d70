package common

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

func TestMapError(t *testing.T) {
	notFound := apperror.New(apperror.ErrCodeNotFound, "нет")

	assert.NoError(t, MapError(nil, notFound, "x"))
	assert.Same(t, notFound, MapError(sql.ErrNoRows, notFound, "x"))
	assert.Equal(t, apperror.ErrCodeDatabaseError, apperror.CodeOf(MapError(sql.ErrNoRows, nil, "x")))
	assert.True(t, apperror.IsConflict(MapError(&pq.Error{Code: "23505"}, notFound, "x")))
	assert.Equal(t, apperror.ErrCodeDatabaseError, apperror.CodeOf(MapError(errors.New("boom"), notFound, "x")))
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })
	return sqlx.NewDb(raw, "sqlmock"), mock
}

func TestWithTransaction_Commit(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("SELECT 1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := WithTransaction(context.Background(), db, func(tx *sqlx.Tx) error {
		_, err := tx.Exec("SELECT 1")
		return err
	})
	require.NoError(t, err)
}

func TestWithTransaction_RollbackKeepsOriginalError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	original := apperror.New(apperror.ErrCodeInvalidState, "нельзя")
	err := WithTransaction(context.Background(), db, func(*sqlx.Tx) error { return original })
	assert.Same(t, original, err)
}

func TestWithTransaction_RollbackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = WithTransaction(context.Background(), db, func(*sqlx.Tx) error { panic("boom") })
	})
}

func TestWithTransaction_BeginError(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin().WillReturnError(errors.New("no connections"))

	err := WithTransaction(context.Background(), db, func(*sqlx.Tx) error { return nil })
	assert.Equal(t, apperror.ErrCodeDatabaseError, apperror.CodeOf(err))
}
