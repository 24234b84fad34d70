package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *entity.Transaction) error
	// UpdateStatus сохраняет статус, ссылки шлюза и метки времени. Суммы не перезаписываются.
	UpdateStatus(ctx context.Context, tx *entity.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	FindByGatewayRefForUpdate(ctx context.Context, ref string) (*entity.Transaction, error)
	// FindActiveByTaskID возвращает nil, nil если активного платежа нет.
	FindActiveByTaskID(ctx context.Context, taskID uuid.UUID) (*entity.Transaction, error)
	FindByUserID(ctx context.Context, userID uuid.UUID, status *valueobject.TransactionStatus) ([]*entity.Transaction, error)
}

// GatewayEventRepository хранит идентификаторы обработанных событий шлюза.
type GatewayEventRepository interface {
	// MarkProcessed возвращает false, если событие уже было обработано.
	MarkProcessed(ctx context.Context, eventID, eventType, ref string) (bool, error)
}
