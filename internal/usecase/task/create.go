package task

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
)

type CreateTaskInput struct {
	CreatorID   uuid.UUID
	Title       string
	Description string
	Budget      *int64
	Currency    string
	Deadline    *time.Time
}

type CreateTaskUseCase struct {
	taskRepo repository.TaskRepository
}

func NewCreateTaskUseCase(taskRepo repository.TaskRepository) *CreateTaskUseCase {
	return &CreateTaskUseCase{taskRepo: taskRepo}
}

func (uc *CreateTaskUseCase) Execute(ctx context.Context, input CreateTaskInput) (*entity.Task, error) {
	var budget *valueobject.Money
	if input.Budget != nil {
		m, err := valueobject.NewMoney(*input.Budget, input.Currency)
		if err != nil {
			return nil, err
		}
		budget = &m
	}

	task, err := entity.NewTask(input.CreatorID, input.Title, input.Description, budget, input.Deadline)
	if err != nil {
		return nil, err
	}

	if err := uc.taskRepo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}
