package persistence

import (
	"database/sql"

	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

// requireAffected возвращает notFound, если запрос не затронул ни одной строки.
func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось получить число измененных строк")
	}
	if n == 0 {
		return notFound
	}
	return nil
}
