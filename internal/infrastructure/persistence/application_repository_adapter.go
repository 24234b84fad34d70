package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskmarket-backend/internal/repository/common"
)

const applicationColumns = `id, task_id, applicant_id, status, message, created_at, updated_at`

type ApplicationRepositoryAdapter struct {
	db *sqlx.DB
}

func NewApplicationRepositoryAdapter(db *sqlx.DB) *ApplicationRepositoryAdapter {
	return &ApplicationRepositoryAdapter{db: db}
}

func (r *ApplicationRepositoryAdapter) Create(ctx context.Context, a *entity.Application) error {
	query := `
		INSERT INTO applications (` + applicationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		a.ID, a.TaskID, a.ApplicantID, string(a.Status), a.Message, a.CreatedAt, a.UpdatedAt,
	)
	return common.MapError(err, nil, "не удалось создать заявку")
}

func (r *ApplicationRepositoryAdapter) Update(ctx context.Context, a *entity.Application) error {
	query := `UPDATE applications SET status = $2, message = $3, updated_at = $4 WHERE id = $1`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, a.ID, string(a.Status), a.Message, a.UpdatedAt)
	if err != nil {
		return common.MapError(err, nil, "не удалось обновить заявку")
	}
	return requireAffected(res, apperror.ErrApplicationNotFound)
}

func (r *ApplicationRepositoryAdapter) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return common.MapError(err, nil, "не удалось удалить заявку")
	}
	return requireAffected(res, apperror.ErrApplicationNotFound)
}

func (r *ApplicationRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	return r.findOne(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1`, id)
}

func (r *ApplicationRepositoryAdapter) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	return r.findOne(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id = $1 FOR UPDATE`, id)
}

func (r *ApplicationRepositoryAdapter) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Application, error) {
	var row applicationRow
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, args...); err != nil {
		return nil, common.MapError(err, apperror.ErrApplicationNotFound, "не удалось получить заявку")
	}
	return row.toEntity(), nil
}

func (r *ApplicationRepositoryAdapter) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*entity.Application, error) {
	return r.findMany(ctx, `SELECT `+applicationColumns+` FROM applications WHERE task_id = $1 ORDER BY created_at DESC`, taskID)
}

func (r *ApplicationRepositoryAdapter) FindByApplicantID(ctx context.Context, applicantID uuid.UUID) ([]*entity.Application, error) {
	return r.findMany(ctx, `SELECT `+applicationColumns+` FROM applications WHERE applicant_id = $1 ORDER BY created_at DESC`, applicantID)
}

func (r *ApplicationRepositoryAdapter) FindByTaskAndApplicant(ctx context.Context, taskID, applicantID uuid.UUID) (*entity.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE task_id = $1 AND applicant_id = $2`
	a, err := r.findOne(ctx, query, taskID, applicantID)
	if apperror.IsNotFound(err) {
		return nil, nil
	}
	return a, err
}

func (r *ApplicationRepositoryAdapter) RejectPendingExcept(ctx context.Context, taskID, exceptID uuid.UUID) ([]*entity.Application, error) {
	query := `
		UPDATE applications SET status = $3, updated_at = $4
		WHERE task_id = $1 AND id <> $2 AND status = $5
		RETURNING ` + applicationColumns
	return r.findMany(ctx, query, taskID, exceptID,
		string(valueobject.ApplicationStatusRejected), time.Now(), string(valueobject.ApplicationStatusPending))
}

func (r *ApplicationRepositoryAdapter) RejectAccepted(ctx context.Context, taskID uuid.UUID) ([]*entity.Application, error) {
	query := `
		UPDATE applications SET status = $2, updated_at = $3
		WHERE task_id = $1 AND status = $4
		RETURNING ` + applicationColumns
	return r.findMany(ctx, query, taskID,
		string(valueobject.ApplicationStatusRejected), time.Now(), string(valueobject.ApplicationStatusAccepted))
}

func (r *ApplicationRepositoryAdapter) findMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Application, error) {
	var rows []applicationRow
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, common.MapError(err, nil, "не удалось получить заявки")
	}
	applications := make([]*entity.Application, 0, len(rows))
	for i := range rows {
		applications = append(applications, rows[i].toEntity())
	}
	return applications, nil
}

type applicationRow struct {
	ID          uuid.UUID `db:"id"`
	TaskID      uuid.UUID `db:"task_id"`
	ApplicantID uuid.UUID `db:"applicant_id"`
	Status      string    `db:"status"`
	Message     string    `db:"message"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r *applicationRow) toEntity() *entity.Application {
	return &entity.Application{
		ID:          r.ID,
		TaskID:      r.TaskID,
		ApplicantID: r.ApplicantID,
		Status:      valueobject.ApplicationStatus(r.Status),
		Message:     r.Message,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
