package persistence

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	db := sqlx.NewDb(raw, "sqlmock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var taskRowColumns = []string{
	"id", "creator_id", "assigned_worker_id", "title", "description", "budget_amount", "budget_currency",
	"deadline", "status", "transaction_id", "created_at", "updated_at", "completed_at",
}

func TestTxManager_CommitsAndSharesTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	txm := NewTxManager(db)
	repo := NewTaskRepositoryAdapter(db)
	task, err := entity.NewTask(uuid.New(), "Покраска", "Покрасить забор на даче", nil, nil)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(q("INSERT INTO tasks")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("UPDATE tasks SET")).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = txm.WithinTx(context.Background(), func(ctx context.Context) error {
		if err := repo.Create(ctx, task); err != nil {
			return err
		}
		// вложенный вызов не открывает новую транзакцию
		return txm.WithinTx(ctx, func(ctx context.Context) error {
			return repo.Update(ctx, task)
		})
	})
	require.NoError(t, err)
}

func TestTxManager_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	txm := NewTxManager(db)
	boom := apperror.New(apperror.ErrCodeInvalidState, "нельзя")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := txm.WithinTx(context.Background(), func(ctx context.Context) error { return boom })
	assert.Same(t, boom, err)
}

func TestTaskRepository_FindByIDForUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepositoryAdapter(db)
	id, creator, worker := uuid.New(), uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(q("FROM tasks WHERE id = $1 FOR UPDATE")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).AddRow(
			id.String(), creator.String(), worker.String(), "Покраска", "Покрасить забор", int64(5000), "EUR",
			nil, "assigned", nil, now, now, nil,
		))

	task, err := repo.FindByIDForUpdate(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, valueobject.TaskStatusAssigned, task.Status)
	require.NotNil(t, task.AssignedWorkerID)
	assert.Equal(t, worker, *task.AssignedWorkerID)
	require.NotNil(t, task.Budget)
	assert.Equal(t, int64(5000), task.Budget.Amount)
	assert.Nil(t, task.TransactionID)
}

func TestTaskRepository_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepositoryAdapter(db)
	id := uuid.New()

	mock.ExpectQuery(q("FROM tasks WHERE id = $1")).WithArgs(id).WillReturnError(sql.ErrNoRows)
	_, err := repo.FindByID(context.Background(), id)
	assert.ErrorIs(t, err, apperror.ErrTaskNotFound)

	mock.ExpectExec(q("UPDATE tasks SET")).WillReturnResult(sqlmock.NewResult(0, 0))
	err = repo.Update(context.Background(), &entity.Task{ID: id, Status: valueobject.TaskStatusOpen})
	assert.True(t, apperror.IsNotFound(err))
}

func TestTaskRepository_DriverErrorIsDatabaseError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTaskRepositoryAdapter(db)

	mock.ExpectQuery(q("FROM tasks WHERE creator_id = $1 OR assigned_worker_id = $1")).
		WillReturnError(errors.New("connection reset"))

	_, err := repo.FindByParticipant(context.Background(), uuid.New())
	assert.Equal(t, apperror.ErrCodeDatabaseError, apperror.CodeOf(err))
}

func TestApplicationRepository_UniqueViolationIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepositoryAdapter(db)
	app, err := entity.NewApplication(uuid.New(), uuid.New(), "Готов начать завтра")
	require.NoError(t, err)

	mock.ExpectExec(q("INSERT INTO applications")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "applications_task_id_applicant_id_key"})

	err = repo.Create(context.Background(), app)
	assert.True(t, apperror.IsConflict(err))
}

func TestApplicationRepository_FindByTaskAndApplicantMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepositoryAdapter(db)
	taskID, applicantID := uuid.New(), uuid.New()

	mock.ExpectQuery(q("FROM applications WHERE task_id = $1 AND applicant_id = $2")).
		WithArgs(taskID, applicantID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	app, err := repo.FindByTaskAndApplicant(context.Background(), taskID, applicantID)
	require.NoError(t, err)
	assert.Nil(t, app)
}

func TestApplicationRepository_RejectPendingExcept(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepositoryAdapter(db)
	taskID, acceptedID := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(q("UPDATE applications SET status = $3")+".*"+q("RETURNING")).
		WithArgs(taskID, acceptedID, "rejected", sqlmock.AnyArg(), "pending").
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_id", "applicant_id", "status", "message", "created_at", "updated_at"}).
			AddRow(uuid.NewString(), taskID.String(), uuid.NewString(), "rejected", "", now, now).
			AddRow(uuid.NewString(), taskID.String(), uuid.NewString(), "rejected", "Могу сегодня", now, now))

	rejected, err := repo.RejectPendingExcept(context.Background(), taskID, acceptedID)
	require.NoError(t, err)
	require.Len(t, rejected, 2)
	for _, a := range rejected {
		assert.Equal(t, valueobject.ApplicationStatusRejected, a.Status)
	}
}

func TestApplicationRepository_RejectAccepted(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewApplicationRepositoryAdapter(db)
	taskID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(q("UPDATE applications SET status = $2")+".*"+q("WHERE task_id = $1 AND status = $4")).
		WithArgs(taskID, "rejected", sqlmock.AnyArg(), "accepted").
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_id", "applicant_id", "status", "message", "created_at", "updated_at"}).
			AddRow(uuid.NewString(), taskID.String(), uuid.NewString(), "rejected", "", now, now))

	revoked, err := repo.RejectAccepted(context.Background(), taskID)
	require.NoError(t, err)
	require.Len(t, revoked, 1)
	assert.Equal(t, valueobject.ApplicationStatusRejected, revoked[0].Status)
}

func TestTransactionRepository_CreateConflictOnActivePayment(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepositoryAdapter(db)
	tx, err := entity.NewTransaction(uuid.New(), uuid.New(), valueobject.Money{Amount: 10000, Currency: "EUR"}, 1000, "auth_1")
	require.NoError(t, err)

	mock.ExpectExec(q("INSERT INTO transactions")).WillReturnError(&pq.Error{Code: "23505"})

	err = repo.Create(context.Background(), tx)
	assert.True(t, apperror.IsConflict(err))
}

func TestTransactionRepository_UpdateStatusKeepsAmounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepositoryAdapter(db)
	tx, err := entity.NewTransaction(uuid.New(), uuid.New(), valueobject.Money{Amount: 10000, Currency: "EUR"}, 1000, "auth_1")
	require.NoError(t, err)
	require.NoError(t, tx.MarkHeld())

	// в UPDATE нет колонок amount, platform_fee и worker_amount
	mock.ExpectExec(`UPDATE transactions SET status = \$2, payee_id = \$3, gateway_refund_ref = \$4, refunded_amount = \$5,\s+failure_reason = \$6, held_at = \$7, released_at = \$8, refunded_at = \$9, updated_at = \$10\s+WHERE id = \$1`).
		WithArgs(tx.ID, "held", nil, nil, int64(0), nil, sqlmock.AnyArg(), nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), tx))
}

func TestTransactionRepository_FindByUserIDWithStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepositoryAdapter(db)
	userID := uuid.New()
	held := valueobject.TransactionStatusHeld

	mock.ExpectQuery(q("WHERE (payer_id = $1 OR payee_id = $1) AND status = $2 ORDER BY created_at DESC")).
		WithArgs(userID, "held").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	txs, err := repo.FindByUserID(context.Background(), userID, &held)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestTransactionRepository_FindActiveByTaskIDMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewTransactionRepositoryAdapter(db)

	mock.ExpectQuery(q("status IN ('pending', 'held')")).WillReturnError(sql.ErrNoRows)

	tx, err := repo.FindActiveByTaskID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, tx)
}

func TestGatewayEventRepository_MarkProcessed(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGatewayEventRepositoryAdapter(db)

	mock.ExpectExec(q("ON CONFLICT (event_id) DO NOTHING")).
		WithArgs("evt_1", "payment_succeeded", "auth_1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("ON CONFLICT (event_id) DO NOTHING")).
		WithArgs("evt_1", "payment_succeeded", "auth_1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	first, err := repo.MarkProcessed(context.Background(), "evt_1", "payment_succeeded", "auth_1")
	require.NoError(t, err)
	assert.True(t, first)

	again, err := repo.MarkProcessed(context.Background(), "evt_1", "payment_succeeded", "auth_1")
	require.NoError(t, err)
	assert.False(t, again)
}

func TestDisputeRepository_EvidenceArrays(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDisputeRepositoryAdapter(db)
	d, err := entity.NewDispute(uuid.New(), uuid.New(), uuid.New(), valueobject.DisputeReasonNoShow,
		"Исполнитель так и не пришел на объект", []string{"https://files.example/1.jpg"})
	require.NoError(t, err)

	mock.ExpectExec(q("INSERT INTO disputes")).
		WithArgs(d.ID, d.TaskID, d.FiledByID, d.FiledAgainstID, "no_show", d.Description,
			`{"https://files.example/1.jpg"}`, "open", nil, nil, nil, nil, nil, "{}", nil,
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(context.Background(), d))

	now := time.Now()
	mock.ExpectQuery(q("FROM disputes WHERE id = $1")).
		WithArgs(d.ID).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "task_id", "filed_by_id", "filed_against_id", "reason", "description", "evidence_urls", "status",
			"resolution", "resolution_notes", "resolved_by_id", "resolved_at", "response_description",
			"response_evidence_urls", "responded_at", "created_at", "updated_at",
		}).AddRow(d.ID.String(), d.TaskID.String(), d.FiledByID.String(), d.FiledAgainstID.String(), "no_show", d.Description,
			`{https://files.example/1.jpg,https://files.example/2.jpg}`, "resolved", "refund", nil, uuid.NewString(), now,
			nil, nil, nil, now, now))

	found, err := repo.FindByID(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Len(t, found.EvidenceURLs, 2)
	require.NotNil(t, found.Resolution)
	assert.Equal(t, valueobject.ResolutionRefund, *found.Resolution)
	assert.True(t, found.IsResolved())
}

func TestDisputeRepository_FindUnresolvedMissing(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDisputeRepositoryAdapter(db)

	mock.ExpectQuery(q("status <> 'resolved'")).WillReturnError(sql.ErrNoRows)

	d, err := repo.FindUnresolvedByTaskAndFiler(context.Background(), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDisputeRepository_FindAllWithoutFilter(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDisputeRepositoryAdapter(db)

	mock.ExpectQuery(`FROM disputes ORDER BY created_at DESC`).
		WithArgs().
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	all, err := repo.FindAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestReviewRepository_UpsertKeepsExistingID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepositoryAdapter(db)
	review := entity.NewPenaltyReview(uuid.New(), uuid.New(), uuid.New(), "Решение по спору")
	existingID := uuid.New()
	createdAt := time.Now().Add(-time.Hour)

	mock.ExpectQuery(q("ON CONFLICT (task_id, reviewed_id) DO UPDATE SET")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(existingID.String(), createdAt))

	require.NoError(t, repo.Upsert(context.Background(), review))
	assert.Equal(t, existingID, review.ID)
	assert.Equal(t, 1, review.Rating)
}
