package escrow

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type CreateHoldInput struct {
	TaskID   uuid.UUID
	PayerID  uuid.UUID
	Amount   int64
	Currency string
}

type HoldResult struct {
	Transaction  *entity.Transaction
	ClientSecret string
}

type CreateHoldUseCase struct {
	taskRepo        repository.TaskRepository
	transactionRepo repository.TransactionRepository
	txManager       repository.TxManager
	gateway         Gateway
	cfg             Config
}

func NewCreateHoldUseCase(taskRepo repository.TaskRepository, transactionRepo repository.TransactionRepository, txManager repository.TxManager, gateway Gateway, cfg Config) *CreateHoldUseCase {
	return &CreateHoldUseCase{
		taskRepo:        taskRepo,
		transactionRepo: transactionRepo,
		txManager:       txManager,
		gateway:         gateway,
		cfg:             cfg,
	}
}

// Execute авторизует платеж в шлюзе и сохраняет ожидающую транзакцию.
func (uc *CreateHoldUseCase) Execute(ctx context.Context, input CreateHoldInput) (*HoldResult, error) {
	currency := input.Currency
	if currency == "" {
		currency = uc.cfg.Currency
	}
	amount, err := valueobject.NewPositiveMoney(input.Amount, currency)
	if err != nil {
		return nil, err
	}

	var result HoldResult
	err = uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		task, err := uc.taskRepo.FindByIDForUpdate(ctx, input.TaskID)
		if err != nil {
			return err
		}
		if !task.IsOwnedBy(input.PayerID) {
			return apperror.New(apperror.ErrCodeForbidden, "оплатить задачу может только ее автор")
		}
		if task.IsFinished() {
			return apperror.New(apperror.ErrCodeInvalidState, "задача уже завершена или отменена")
		}

		active, err := uc.transactionRepo.FindActiveByTaskID(ctx, task.ID)
		if err != nil {
			return err
		}
		if active != nil {
			return apperror.New(apperror.ErrCodeConflict, "по задаче уже есть активный платеж")
		}

		auth, err := uc.authorize(ctx, task, input.PayerID, amount)
		if err != nil {
			return err
		}

		tx, err := entity.NewTransaction(task.ID, input.PayerID, amount, uc.cfg.FeeBps, auth.Ref)
		if err != nil {
			return err
		}
		if err := uc.transactionRepo.Create(ctx, tx); err != nil {
			logger.L().WithFields(logrus.Fields{
				"task_id":     task.ID,
				"gateway_ref": auth.Ref,
			}).WithError(err).Error("authorization created but transaction not stored")
			return err
		}

		result = HoldResult{Transaction: tx, ClientSecret: auth.ClientSecret}
		return nil
	})
	metrics.EscrowOperations.WithLabelValues("hold", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	logger.L().WithFields(logrus.Fields{
		"task_id":        result.Transaction.TaskID,
		"transaction_id": result.Transaction.ID,
		"amount":         result.Transaction.Amount,
		"platform_fee":   result.Transaction.PlatformFee,
	}).Info("escrow hold created")
	return &result, nil
}

func (uc *CreateHoldUseCase) authorize(ctx context.Context, task *entity.Task, payerID uuid.UUID, amount valueobject.Money) (Authorization, error) {
	gctx, cancel := context.WithTimeout(ctx, uc.cfg.timeout())
	defer cancel()

	auth, err := uc.gateway.Authorize(gctx, AuthorizeRequest{
		TaskID:         task.ID,
		PayerID:        payerID,
		Amount:         amount.Amount,
		Currency:       amount.Currency,
		IdempotencyKey: fmt.Sprintf("hold-%s-%s", task.ID, uuid.NewString()),
		Description:    task.Title,
	})
	if err != nil {
		return Authorization{}, gatewayError(err, "не удалось авторизовать платеж")
	}
	return auth, nil
}

// gatewayError сохраняет код, если шлюз уже вернул AppError.
func gatewayError(err error, message string) error {
	if apperror.IsGateway(err) {
		return err
	}
	return apperror.Wrap(err, apperror.ErrCodeGateway, message)
}
