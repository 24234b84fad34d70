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

const taskColumns = `id, creator_id, assigned_worker_id, title, description, budget_amount, budget_currency,
		deadline, status, transaction_id, created_at, updated_at, completed_at`

type TaskRepositoryAdapter struct {
	db *sqlx.DB
}

func NewTaskRepositoryAdapter(db *sqlx.DB) *TaskRepositoryAdapter {
	return &TaskRepositoryAdapter{db: db}
}

func (r *TaskRepositoryAdapter) Create(ctx context.Context, task *entity.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	row := newTaskRow(task)
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		row.ID, row.CreatorID, row.AssignedWorkerID, row.Title, row.Description,
		row.BudgetAmount, row.BudgetCurrency, row.Deadline, row.Status, row.TransactionID,
		row.CreatedAt, row.UpdatedAt, row.CompletedAt,
	)
	return common.MapError(err, nil, "не удалось создать задачу")
}

func (r *TaskRepositoryAdapter) Update(ctx context.Context, task *entity.Task) error {
	query := `
		UPDATE tasks SET assigned_worker_id = $2, title = $3, description = $4, budget_amount = $5,
		budget_currency = $6, deadline = $7, status = $8, transaction_id = $9, updated_at = $10, completed_at = $11
		WHERE id = $1
	`
	row := newTaskRow(task)
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		row.ID, row.AssignedWorkerID, row.Title, row.Description, row.BudgetAmount,
		row.BudgetCurrency, row.Deadline, row.Status, row.TransactionID, row.UpdatedAt, row.CompletedAt,
	)
	if err != nil {
		return common.MapError(err, nil, "не удалось обновить задачу")
	}
	return requireAffected(res, apperror.ErrTaskNotFound)
}

func (r *TaskRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return r.findOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
}

func (r *TaskRepositoryAdapter) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return r.findOne(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1 FOR UPDATE`, id)
}

func (r *TaskRepositoryAdapter) findOne(ctx context.Context, query string, id uuid.UUID) (*entity.Task, error) {
	var row taskRow
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, id); err != nil {
		return nil, common.MapError(err, apperror.ErrTaskNotFound, "не удалось получить задачу")
	}
	return row.toEntity(), nil
}

func (r *TaskRepositoryAdapter) FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*entity.Task, error) {
	var rows []taskRow
	query := `
		SELECT ` + taskColumns + `
		FROM tasks WHERE creator_id = $1 OR assigned_worker_id = $1 ORDER BY created_at DESC
	`
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, userID); err != nil {
		return nil, common.MapError(err, nil, "не удалось получить задачи")
	}
	tasks := make([]*entity.Task, 0, len(rows))
	for i := range rows {
		tasks = append(tasks, rows[i].toEntity())
	}
	return tasks, nil
}

type taskRow struct {
	ID               uuid.UUID  `db:"id"`
	CreatorID        uuid.UUID  `db:"creator_id"`
	AssignedWorkerID *uuid.UUID `db:"assigned_worker_id"`
	Title            string     `db:"title"`
	Description      string     `db:"description"`
	BudgetAmount     *int64     `db:"budget_amount"`
	BudgetCurrency   *string    `db:"budget_currency"`
	Deadline         *time.Time `db:"deadline"`
	Status           string     `db:"status"`
	TransactionID    *uuid.UUID `db:"transaction_id"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	CompletedAt      *time.Time `db:"completed_at"`
}

func newTaskRow(t *entity.Task) taskRow {
	row := taskRow{
		ID:               t.ID,
		CreatorID:        t.CreatorID,
		AssignedWorkerID: t.AssignedWorkerID,
		Title:            t.Title,
		Description:      t.Description,
		Deadline:         t.Deadline,
		Status:           string(t.Status),
		TransactionID:    t.TransactionID,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
		CompletedAt:      t.CompletedAt,
	}
	if t.Budget != nil {
		amount, currency := t.Budget.Amount, t.Budget.Currency
		row.BudgetAmount, row.BudgetCurrency = &amount, &currency
	}
	return row
}

func (r *taskRow) toEntity() *entity.Task {
	task := &entity.Task{
		ID:               r.ID,
		CreatorID:        r.CreatorID,
		AssignedWorkerID: r.AssignedWorkerID,
		Title:            r.Title,
		Description:      r.Description,
		Deadline:         r.Deadline,
		Status:           valueobject.TaskStatus(r.Status),
		TransactionID:    r.TransactionID,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
		CompletedAt:      r.CompletedAt,
	}
	if r.BudgetAmount != nil {
		currency := valueobject.DefaultCurrency
		if r.BudgetCurrency != nil {
			currency = *r.BudgetCurrency
		}
		task.Budget = &valueobject.Money{Amount: *r.BudgetAmount, Currency: currency}
	}
	return task
}
