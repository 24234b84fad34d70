package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type ApplyUseCase struct {
	taskRepo        repository.TaskRepository
	applicationRepo repository.ApplicationRepository
	txManager       repository.TxManager
	notifier        notification.Notifier
}

func NewApplyUseCase(taskRepo repository.TaskRepository, applicationRepo repository.ApplicationRepository, txManager repository.TxManager, notifier notification.Notifier) *ApplyUseCase {
	return &ApplyUseCase{
		taskRepo:        taskRepo,
		applicationRepo: applicationRepo,
		txManager:       txManager,
		notifier:        notifier,
	}
}

// Execute создает отклик. Строка задачи блокируется, как в Accept, поэтому отклик
// не может появиться у задачи, которую в этот момент назначают исполнителю.
func (uc *ApplyUseCase) Execute(ctx context.Context, taskID, applicantID uuid.UUID, message string) (*entity.Application, error) {
	var (
		task *entity.Task
		app  *entity.Application
	)
	err := uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		task, err = uc.taskRepo.FindByIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}

		if task.Status != valueobject.TaskStatusOpen {
			return apperror.New(apperror.ErrCodeInvalidState, "задача не принимает заявки")
		}

		if task.IsOwnedBy(applicantID) {
			return apperror.New(apperror.ErrCodeForbidden, "нельзя откликнуться на собственную задачу")
		}

		existing, err := uc.applicationRepo.FindByTaskAndApplicant(ctx, taskID, applicantID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.New(apperror.ErrCodeConflict, "вы уже откликнулись на эту задачу")
		}

		app, err = entity.NewApplication(taskID, applicantID, message)
		if err != nil {
			return err
		}

		// гонку двух одновременных откликов закрывает уникальный индекс (task_id, applicant_id)
		if err := uc.applicationRepo.Create(ctx, app); err != nil {
			if apperror.IsConflict(err) {
				return apperror.New(apperror.ErrCodeConflict, "вы уже откликнулись на эту задачу")
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, notification.NewApplication(task.CreatorID, taskRef(task), app.ID, applicantID))

	return app, nil
}

func taskRef(task *entity.Task) notification.TaskRef {
	return notification.TaskRef{ID: task.ID, Title: task.Title}
}
