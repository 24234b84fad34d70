package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type RejectUseCase struct {
	taskRepo        repository.TaskRepository
	applicationRepo repository.ApplicationRepository
	txManager       repository.TxManager
	notifier        notification.Notifier
}

func NewRejectUseCase(taskRepo repository.TaskRepository, applicationRepo repository.ApplicationRepository, txManager repository.TxManager, notifier notification.Notifier) *RejectUseCase {
	return &RejectUseCase{
		taskRepo:        taskRepo,
		applicationRepo: applicationRepo,
		txManager:       txManager,
		notifier:        notifier,
	}
}

func (uc *RejectUseCase) Execute(ctx context.Context, taskID, applicationID, actorID uuid.UUID) (*entity.Application, error) {
	var (
		app  *entity.Application
		task *entity.Task
	)

	err := uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		task, err = uc.taskRepo.FindByIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if !task.IsOwnedBy(actorID) {
			return apperror.New(apperror.ErrCodeForbidden, "отклонить заявку может только автор задачи")
		}

		app, err = uc.applicationRepo.FindByIDForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		if !app.BelongsTo(task.ID) {
			return apperror.ErrApplicationNotFound
		}
		if err := app.Reject(); err != nil {
			return err
		}
		return uc.applicationRepo.Update(ctx, app)
	})
	if err != nil {
		return nil, err
	}

	uc.notifier.Notify(ctx, notification.ApplicationRejected(app.ApplicantID, taskRef(task), app.ID))
	return app, nil
}
