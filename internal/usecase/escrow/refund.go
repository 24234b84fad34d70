package escrow

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type RefundInput struct {
	TransactionID uuid.UUID
	// Amount в минимальных единицах; 0 - полный возврат.
	Amount int64
	Reason string
}

type RefundUseCase struct {
	transactionRepo repository.TransactionRepository
	txManager       repository.TxManager
	gateway         Gateway
	notifier        notification.Notifier
	cfg             Config
}

func NewRefundUseCase(transactionRepo repository.TransactionRepository, txManager repository.TxManager, gateway Gateway, notifier notification.Notifier, cfg Config) *RefundUseCase {
	return &RefundUseCase{
		transactionRepo: transactionRepo,
		txManager:       txManager,
		gateway:         gateway,
		notifier:        notifier,
		cfg:             cfg,
	}
}

func (uc *RefundUseCase) Execute(ctx context.Context, input RefundInput, actor auth.Actor) (*entity.Transaction, error) {
	if !actor.IsAdmin {
		return nil, apperror.ErrAdminOnly
	}

	var tx *entity.Transaction
	err := uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		tx, err = uc.transactionRepo.FindByIDForUpdate(ctx, input.TransactionID)
		if err != nil {
			return err
		}
		amount, err := tx.ValidateRefund(input.Amount)
		if err != nil {
			return err
		}

		gctx, cancel := context.WithTimeout(ctx, uc.cfg.timeout())
		defer cancel()
		refundRef, err := uc.gateway.Refund(gctx, tx.GatewayRef, amount, input.Reason)
		if err != nil {
			return gatewayError(err, "не удалось вернуть средства")
		}

		if err := tx.Refund(amount, refundRef); err != nil {
			return err
		}
		return uc.transactionRepo.UpdateStatus(ctx, tx)
	})
	metrics.EscrowOperations.WithLabelValues("refund", metrics.Outcome(err)).Inc()
	if err != nil {
		return nil, err
	}

	logger.L().WithFields(logrus.Fields{
		"transaction_id":  tx.ID,
		"refunded_amount": tx.RefundedAmount,
		"status":          tx.Status,
		"admin_id":        actor.UserID,
	}).Info("escrow refunded")

	uc.notifier.Notify(ctx, notification.Payment(tx.PayerID, notification.TypePaymentRefunded, tx.ID, tx.TaskID, tx.RefundedAmount, tx.Currency))
	return tx, nil
}
