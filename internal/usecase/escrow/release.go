package escrow

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type ReleaseUseCase struct {
	taskRepo        repository.TaskRepository
	transactionRepo repository.TransactionRepository
	txManager       repository.TxManager
	notifier        notification.Notifier
}

func NewReleaseUseCase(taskRepo repository.TaskRepository, transactionRepo repository.TransactionRepository, txManager repository.TxManager, notifier notification.Notifier) *ReleaseUseCase {
	return &ReleaseUseCase{
		taskRepo:        taskRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		notifier:        notifier,
	}
}

// Execute выплачивает удержанные средства исполнителю завершенной задачи.
func (uc *ReleaseUseCase) Execute(ctx context.Context, transactionID uuid.UUID, actor auth.Actor) (*entity.Transaction, error) {
	var tx *entity.Transaction
	err := uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		tx, err = uc.transactionRepo.FindByIDForUpdate(ctx, transactionID)
		if err != nil {
			return err
		}
		task, err := uc.taskRepo.FindByIDForUpdate(ctx, tx.TaskID)
		if err != nil {
			return err
		}

		if !task.IsOwnedBy(actor.UserID) && !actor.IsAdmin {
			return apperror.New(apperror.ErrCodeForbidden, "выплату может выполнить только автор задачи или администратор")
		}
		if tx.Status != valueobject.TransactionStatusHeld {
			return apperror.New(apperror.ErrCodeInvalidState, "выплатить можно только удержанный платеж")
		}
		if task.Status != valueobject.TaskStatusCompleted {
			return apperror.New(apperror.ErrCodeInvalidState, "задача еще не завершена")
		}
		if task.AssignedWorkerID == nil {
			return apperror.New(apperror.ErrCodeInvalidState, "у задачи нет исполнителя")
		}

		if err := tx.Release(*task.AssignedWorkerID); err != nil {
			return err
		}
		return uc.transactionRepo.UpdateStatus(ctx, tx)
	})
	metrics.EscrowOperations.WithLabelValues("release", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	logger.L().WithFields(logrus.Fields{
		"transaction_id": tx.ID,
		"task_id":        tx.TaskID,
		"payee_id":       *tx.PayeeID,
		"worker_amount":  tx.WorkerAmount,
	}).Info("escrow released")

	uc.notifier.Notify(ctx, notification.Payment(*tx.PayeeID, notification.TypePaymentReleased, tx.ID, tx.TaskID, tx.WorkerAmount, tx.Currency))
	return tx, nil
}
