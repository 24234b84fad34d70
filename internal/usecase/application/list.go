package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type ListUseCase struct {
	taskRepo        repository.TaskRepository
	applicationRepo repository.ApplicationRepository
}

func NewListUseCase(taskRepo repository.TaskRepository, applicationRepo repository.ApplicationRepository) *ListUseCase {
	return &ListUseCase{
		taskRepo:        taskRepo,
		applicationRepo: applicationRepo,
	}
}

// ForTask возвращает заявки на задачу. Доступно только автору задачи.
func (uc *ListUseCase) ForTask(ctx context.Context, taskID, actorID uuid.UUID) ([]*entity.Application, error) {
	task, err := uc.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsOwnedBy(actorID) {
		return nil, apperror.New(apperror.ErrCodeForbidden, "заявки видит только автор задачи")
	}
	return uc.applicationRepo.FindByTaskID(ctx, taskID)
}

func (uc *ListUseCase) Mine(ctx context.Context, applicantID uuid.UUID) ([]*entity.Application, error) {
	return uc.applicationRepo.FindByApplicantID(ctx, applicantID)
}
