package common

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

// uniqueViolation - код ошибки PostgreSQL для нарушения уникального индекса.
const uniqueViolation = "23505"

func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// MapError переводит ошибку драйвера в AppError: отсутствие строки в notFound,
// нарушение уникальности в CONFLICT, остальное в DATABASE_ERROR.
func MapError(err error, notFound error, message string) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, sql.ErrNoRows) {
		return notFound
	}
	if IsUniqueViolation(err) {
		return apperror.Wrap(err, apperror.ErrCodeConflict, message)
	}
	return apperror.Wrap(err, apperror.ErrCodeDatabaseError, message)
}
