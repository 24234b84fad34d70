package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
)

type DisputeRepository interface {
	Create(ctx context.Context, dispute *entity.Dispute) error
	Update(ctx context.Context, dispute *entity.Dispute) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Dispute, error)
	// FindUnresolvedByTaskAndFiler возвращает nil, nil если открытого спора нет.
	FindUnresolvedByTaskAndFiler(ctx context.Context, taskID, filerID uuid.UUID) (*entity.Dispute, error)
	FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*entity.Dispute, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, status *valueobject.DisputeStatus) ([]*entity.Dispute, error)
	FindAll(ctx context.Context, status *valueobject.DisputeStatus) ([]*entity.Dispute, error)
}

// ReviewRepository - хранилище отзывов. На пару (задача, оцениваемый) приходится один отзыв.
type ReviewRepository interface {
	Upsert(ctx context.Context, review *entity.Review) error
}
