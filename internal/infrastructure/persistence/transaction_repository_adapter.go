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

const transactionColumns = `id, task_id, payer_id, payee_id, amount, platform_fee, worker_amount, currency, status,
		gateway_ref, gateway_refund_ref, refunded_amount, failure_reason, held_at, released_at, refunded_at,
		created_at, updated_at`

type TransactionRepositoryAdapter struct {
	db *sqlx.DB
}

func NewTransactionRepositoryAdapter(db *sqlx.DB) *TransactionRepositoryAdapter {
	return &TransactionRepositoryAdapter{db: db}
}

func (r *TransactionRepositoryAdapter) Create(ctx context.Context, tx *entity.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		tx.ID, tx.TaskID, tx.PayerID, tx.PayeeID, tx.Amount, tx.PlatformFee, tx.WorkerAmount, tx.Currency,
		string(tx.Status), tx.GatewayRef, tx.GatewayRefundRef, tx.RefundedAmount, tx.FailureReason,
		tx.HeldAt, tx.ReleasedAt, tx.RefundedAt, tx.CreatedAt, tx.UpdatedAt,
	)
	if common.IsUniqueViolation(err) {
		return apperror.New(apperror.ErrCodeConflict, "по задаче уже есть активный платеж")
	}
	return common.MapError(err, nil, "не удалось создать платеж")
}

// UpdateStatus не трогает amount, platform_fee и worker_amount.
func (r *TransactionRepositoryAdapter) UpdateStatus(ctx context.Context, tx *entity.Transaction) error {
	query := `
		UPDATE transactions SET status = $2, payee_id = $3, gateway_refund_ref = $4, refunded_amount = $5,
		failure_reason = $6, held_at = $7, released_at = $8, refunded_at = $9, updated_at = $10
		WHERE id = $1
	`
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		tx.ID, string(tx.Status), tx.PayeeID, tx.GatewayRefundRef, tx.RefundedAmount,
		tx.FailureReason, tx.HeldAt, tx.ReleasedAt, tx.RefundedAt, tx.UpdatedAt,
	)
	if err != nil {
		return common.MapError(err, nil, "не удалось обновить платеж")
	}
	return requireAffected(res, apperror.ErrTransactionNotFound)
}

func (r *TransactionRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return r.findOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
}

func (r *TransactionRepositoryAdapter) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return r.findOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id)
}

func (r *TransactionRepositoryAdapter) FindByGatewayRefForUpdate(ctx context.Context, ref string) (*entity.Transaction, error) {
	return r.findOne(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE gateway_ref = $1 FOR UPDATE`, ref)
}

func (r *TransactionRepositoryAdapter) FindActiveByTaskID(ctx context.Context, taskID uuid.UUID) (*entity.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + ` FROM transactions
		WHERE task_id = $1 AND status IN ('pending', 'held')
		ORDER BY created_at DESC LIMIT 1
	`
	tx, err := r.findOne(ctx, query, taskID)
	if apperror.IsNotFound(err) {
		return nil, nil
	}
	return tx, err
}

func (r *TransactionRepositoryAdapter) FindByUserID(ctx context.Context, userID uuid.UUID, status *valueobject.TransactionStatus) ([]*entity.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE (payer_id = $1 OR payee_id = $1)`
	args := []interface{}{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	query += ` ORDER BY created_at DESC`

	var rows []transactionRow
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, common.MapError(err, nil, "не удалось получить платежи")
	}
	txs := make([]*entity.Transaction, 0, len(rows))
	for i := range rows {
		txs = append(txs, rows[i].toEntity())
	}
	return txs, nil
}

func (r *TransactionRepositoryAdapter) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Transaction, error) {
	var row transactionRow
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, args...); err != nil {
		return nil, common.MapError(err, apperror.ErrTransactionNotFound, "не удалось получить платеж")
	}
	return row.toEntity(), nil
}

type transactionRow struct {
	ID               uuid.UUID  `db:"id"`
	TaskID           uuid.UUID  `db:"task_id"`
	PayerID          uuid.UUID  `db:"payer_id"`
	PayeeID          *uuid.UUID `db:"payee_id"`
	Amount           int64      `db:"amount"`
	PlatformFee      int64      `db:"platform_fee"`
	WorkerAmount     int64      `db:"worker_amount"`
	Currency         string     `db:"currency"`
	Status           string     `db:"status"`
	GatewayRef       string     `db:"gateway_ref"`
	GatewayRefundRef *string    `db:"gateway_refund_ref"`
	RefundedAmount   int64      `db:"refunded_amount"`
	FailureReason    *string    `db:"failure_reason"`
	HeldAt           *time.Time `db:"held_at"`
	ReleasedAt       *time.Time `db:"released_at"`
	RefundedAt       *time.Time `db:"refunded_at"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (r *transactionRow) toEntity() *entity.Transaction {
	return &entity.Transaction{
		ID:               r.ID,
		TaskID:           r.TaskID,
		PayerID:          r.PayerID,
		PayeeID:          r.PayeeID,
		Amount:           r.Amount,
		PlatformFee:      r.PlatformFee,
		WorkerAmount:     r.WorkerAmount,
		Currency:         r.Currency,
		Status:           valueobject.TransactionStatus(r.Status),
		GatewayRef:       r.GatewayRef,
		GatewayRefundRef: r.GatewayRefundRef,
		RefundedAmount:   r.RefundedAmount,
		FailureReason:    r.FailureReason,
		HeldAt:           r.HeldAt,
		ReleasedAt:       r.ReleasedAt,
		RefundedAt:       r.RefundedAt,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type GatewayEventRepositoryAdapter struct {
	db *sqlx.DB
}

func NewGatewayEventRepositoryAdapter(db *sqlx.DB) *GatewayEventRepositoryAdapter {
	return &GatewayEventRepositoryAdapter{db: db}
}

// MarkProcessed вставляет событие; повторная доставка не меняет строк и дает false.
func (r *GatewayEventRepositoryAdapter) MarkProcessed(ctx context.Context, eventID, eventType, ref string) (bool, error) {
	query := `
		INSERT INTO gateway_events (event_id, type, ref, processed_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
	`
	res, err := executor(ctx, r.db).ExecContext(ctx, query, eventID, eventType, ref, time.Now())
	if err != nil {
		return false, common.MapError(err, nil, "не удалось сохранить событие шлюза")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось сохранить событие шлюза")
	}
	return n == 1, nil
}
