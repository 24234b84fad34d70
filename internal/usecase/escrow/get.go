package escrow

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type GetTransactionUseCase struct {
	transactionRepo repository.TransactionRepository
}

func NewGetTransactionUseCase(transactionRepo repository.TransactionRepository) *GetTransactionUseCase {
	return &GetTransactionUseCase{transactionRepo: transactionRepo}
}

func (uc *GetTransactionUseCase) Execute(ctx context.Context, transactionID uuid.UUID, actor auth.Actor) (*entity.Transaction, error) {
	tx, err := uc.transactionRepo.FindByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !tx.Involves(actor.UserID) && !actor.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	return tx, nil
}

// Mine возвращает транзакции, где пользователь плательщик или получатель.
func (uc *GetTransactionUseCase) Mine(ctx context.Context, userID uuid.UUID, status string) ([]*entity.Transaction, error) {
	var filter *valueobject.TransactionStatus
	if status != "" {
		s, err := valueobject.NewTransactionStatus(status)
		if err != nil {
			return nil, err
		}
		filter = &s
	}
	return uc.transactionRepo.FindByUserID(ctx, userID, filter)
}
