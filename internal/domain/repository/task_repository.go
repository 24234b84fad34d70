package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
)

type TaskRepository interface {
	Create(ctx context.Context, task *entity.Task) error
	Update(ctx context.Context, task *entity.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	// FindByIDForUpdate блокирует строку задачи до конца текущей транзакции.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Task, error)
	FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*entity.Task, error)
}
