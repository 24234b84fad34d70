package escrow

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type HandleGatewayEventUseCase struct {
	taskRepo        repository.TaskRepository
	transactionRepo repository.TransactionRepository
	eventRepo       repository.GatewayEventRepository
	txManager       repository.TxManager
	gateway         Gateway
	notifier        notification.Notifier
	cfg             Config
}

func NewHandleGatewayEventUseCase(taskRepo repository.TaskRepository, transactionRepo repository.TransactionRepository, eventRepo repository.GatewayEventRepository, txManager repository.TxManager, gateway Gateway, notifier notification.Notifier, cfg Config) *HandleGatewayEventUseCase {
	return &HandleGatewayEventUseCase{
		taskRepo:        taskRepo,
		transactionRepo: transactionRepo,
		eventRepo:       eventRepo,
		txManager:       txManager,
		gateway:         gateway,
		notifier:        notifier,
		cfg:             cfg,
	}
}

// Execute применяет событие шлюза. Повторная доставка события с тем же ID ничего не меняет.
// Успешная оплата pending-транзакции списывает средства так же, как Capture. Если шлюз
// вернул ошибку, событие не помечается обработанным и повторная доставка попробует снова.
func (uc *HandleGatewayEventUseCase) Execute(ctx context.Context, event GatewayEvent) (EventOutcome, error) {
	if strings.TrimSpace(event.ID) == "" {
		return "", apperror.New(apperror.ErrCodeValidation, "не указан идентификатор события")
	}

	var (
		outcome EventOutcome
		tx      *entity.Transaction
	)
	err := uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		first, err := uc.eventRepo.MarkProcessed(ctx, event.ID, string(event.Type), event.Ref)
		if err != nil {
			return err
		}
		if !first {
			outcome = OutcomeDuplicate
			return nil
		}

		if event.Type != EventPaymentSucceeded && event.Type != EventPaymentFailed {
			outcome = OutcomeIgnored
			return nil
		}

		tx, err = uc.transactionRepo.FindByGatewayRefForUpdate(ctx, event.Ref)
		if err != nil {
			if apperror.IsNotFound(err) {
				outcome = OutcomeIgnored
				return nil
			}
			return err
		}
		if tx.Status != valueobject.TransactionStatusPending {
			outcome = OutcomeIgnored
			return nil
		}

		switch event.Type {
		case EventPaymentSucceeded:
			if err := captureHeld(ctx, uc.gateway, uc.cfg, uc.taskRepo, uc.transactionRepo, tx); err != nil {
				return err
			}
			outcome = OutcomeCaptured
			return nil
		default:
			if err := tx.Fail(event.FailureReason); err != nil {
				return err
			}
			outcome = OutcomeFailed
			return uc.transactionRepo.UpdateStatus(ctx, tx)
		}
	})
	if err != nil {
		metrics.EscrowOperations.WithLabelValues("webhook", "error").Inc()
		return "", err
	}
	metrics.EscrowOperations.WithLabelValues("webhook", string(outcome)).Inc()

	logger.L().WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.Type,
		"ref":        event.Ref,
		"outcome":    outcome,
	}).Info("gateway event handled")

	switch outcome {
	case OutcomeCaptured:
		uc.notifier.Notify(ctx, notification.Payment(tx.PayerID, notification.TypePaymentHeld, tx.ID, tx.TaskID, tx.Amount, tx.Currency))
	case OutcomeFailed:
		uc.notifier.Notify(ctx, notification.Payment(tx.PayerID, notification.TypePaymentFailed, tx.ID, tx.TaskID, tx.Amount, tx.Currency))
	}
	return outcome, nil
}
