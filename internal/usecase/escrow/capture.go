package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type CaptureUseCase struct {
	taskRepo        repository.TaskRepository
	transactionRepo repository.TransactionRepository
	txManager       repository.TxManager
	gateway         Gateway
	notifier        notification.Notifier
	cfg             Config
}

func NewCaptureUseCase(taskRepo repository.TaskRepository, transactionRepo repository.TransactionRepository, txManager repository.TxManager, gateway Gateway, notifier notification.Notifier, cfg Config) *CaptureUseCase {
	return &CaptureUseCase{
		taskRepo:        taskRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		gateway:         gateway,
		notifier:        notifier,
		cfg:             cfg,
	}
}

// ExecuteAs - подтверждение оплаты плательщиком или администратором.
func (uc *CaptureUseCase) ExecuteAs(ctx context.Context, transactionID uuid.UUID, actor auth.Actor) (*entity.Transaction, error) {
	tx, err := uc.transactionRepo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !tx.IsPaidBy(actor.UserID) && !actor.IsAdmin {
		return nil, apperror.New(apperror.ErrCodeForbidden, "подтвердить оплату может только плательщик")
	}
	return uc.Execute(ctx, transactionID)
}

// Execute списывает авторизованные средства и переводит транзакцию в held.
func (uc *CaptureUseCase) Execute(ctx context.Context, transactionID uuid.UUID) (*entity.Transaction, error) {
	var tx *entity.Transaction
	err := uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		tx, err = uc.transactionRepo.FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		return captureHeld(ctx, uc.gateway, uc.cfg, uc.taskRepo, uc.transactionRepo, tx)
	})
	metrics.EscrowOperations.WithLabelValues("capture", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, notification.Payment(tx.PayerID, notification.TypePaymentHeld, tx.ID, tx.TaskID, tx.Amount, tx.Currency))
	return tx, nil
}

// captureHeld списывает средства в шлюзе и сохраняет held-транзакцию.
// Вызывается внутри WithinTx: ошибка шлюза откатывает транзакцию и строка остается pending.
func captureHeld(ctx context.Context, gateway Gateway, cfg Config, taskRepo repository.TaskRepository, transactionRepo repository.TransactionRepository, tx *entity.Transaction) error {
	if err := tx.MarkHeld(); err != nil {
		return err
	}

	gctx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()
	if err := gateway.Capture(gctx, tx.GatewayRef); err != nil {
		return gatewayError(err, "не удалось списать средства")
	}

	return persistHeld(ctx, taskRepo, transactionRepo, tx)
}

// persistHeld сохраняет held-транзакцию и привязывает ее к задаче.
func persistHeld(ctx context.Context, taskRepo repository.TaskRepository, transactionRepo repository.TransactionRepository, tx *entity.Transaction) error {
	if err := transactionRepo.UpdateStatus(ctx, tx); err != nil {
		return err
	}
	task, err := taskRepo.FindByIDForUpdate(ctx, tx.TaskID)
	if err != nil {
		return err
	}
	task.LinkTransaction(tx.ID)
	return taskRepo.Update(ctx, task)
}
