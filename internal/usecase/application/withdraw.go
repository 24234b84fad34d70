package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type WithdrawUseCase struct {
	applicationRepo repository.ApplicationRepository
	txManager       repository.TxManager
}

func NewWithdrawUseCase(applicationRepo repository.ApplicationRepository, txManager repository.TxManager) *WithdrawUseCase {
	return &WithdrawUseCase{
		applicationRepo: applicationRepo,
		txManager:       txManager,
	}
}

func (uc *WithdrawUseCase) Execute(ctx context.Context, taskID, applicationID, actorID uuid.UUID) error {
	return uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		app, err := uc.applicationRepo.FindByIDForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		if !app.BelongsTo(taskID) {
			return apperror.ErrApplicationNotFound
		}
		if !app.IsOwnedBy(actorID) {
			return apperror.New(apperror.ErrCodeForbidden, "отозвать можно только свою заявку")
		}
		if !app.IsPending() {
			return apperror.New(apperror.ErrCodeInvalidState, "заявка уже обработана")
		}
		return uc.applicationRepo.Delete(ctx, app.ID)
	})
}
