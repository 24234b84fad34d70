package task

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
)

type GetTaskUseCase struct {
	taskRepo repository.TaskRepository
}

func NewGetTaskUseCase(taskRepo repository.TaskRepository) *GetTaskUseCase {
	return &GetTaskUseCase{taskRepo: taskRepo}
}

func (uc *GetTaskUseCase) Execute(ctx context.Context, taskID uuid.UUID) (*entity.Task, error) {
	return uc.taskRepo.FindByID(ctx, taskID)
}

// Mine возвращает задачи, где пользователь автор или исполнитель.
func (uc *GetTaskUseCase) Mine(ctx context.Context, userID uuid.UUID) ([]*entity.Task, error) {
	return uc.taskRepo.FindByParticipant(ctx, userID)
}
