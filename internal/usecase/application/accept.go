package application

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type AcceptResult struct {
	Application *entity.Application
	Task        *entity.Task
	Rejected    []*entity.Application
}

type AcceptUseCase struct {
	taskRepo        repository.TaskRepository
	applicationRepo repository.ApplicationRepository
	txManager       repository.TxManager
	notifier        notification.Notifier
}

func NewAcceptUseCase(taskRepo repository.TaskRepository, applicationRepo repository.ApplicationRepository, txManager repository.TxManager, notifier notification.Notifier) *AcceptUseCase {
	return &AcceptUseCase{
		taskRepo:        taskRepo,
		applicationRepo: applicationRepo,
		txManager:       txManager,
		notifier:        notifier,
	}
}

// Execute принимает заявку: задача назначается заявителю, остальные ожидающие заявки отклоняются.
// Все изменения фиксируются одной транзакцией под блокировкой строки задачи.
func (uc *AcceptUseCase) Execute(ctx context.Context, taskID, applicationID, actorID uuid.UUID) (*AcceptResult, error) {
	var result AcceptResult

	err := uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		task, err := uc.taskRepo.FindByIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if !task.IsOwnedBy(actorID) {
			return apperror.New(apperror.ErrCodeForbidden, "принять заявку может только автор задачи")
		}

		app, err := uc.applicationRepo.FindByIDForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		if !app.BelongsTo(task.ID) {
			return apperror.ErrApplicationNotFound
		}
		if !app.IsPending() {
			return apperror.New(apperror.ErrCodeInvalidState, "заявка уже обработана")
		}

		if err := task.Assign(app.ApplicantID); err != nil {
			return err
		}
		if err := app.Accept(); err != nil {
			return err
		}

		if err := uc.applicationRepo.Update(ctx, app); err != nil {
			return err
		}
		if err := uc.taskRepo.Update(ctx, task); err != nil {
			return err
		}

		rejected, err := uc.applicationRepo.RejectPendingExcept(ctx, task.ID, app.ID)
		if err != nil {
			return err
		}

		result = AcceptResult{Application: app, Task: task, Rejected: rejected}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.TaskTransitions.WithLabelValues(string(result.Task.Status)).Inc()
	logger.L().WithFields(logrus.Fields{
		"task_id":        result.Task.ID,
		"application_id": result.Application.ID,
		"worker_id":      result.Application.ApplicantID,
		"auto_rejected":  len(result.Rejected),
	}).Info("application accepted")

	ref := taskRef(result.Task)
	uc.notifier.Notify(ctx, notification.ApplicationAccepted(result.Application.ApplicantID, ref, result.Application.ID))
	for _, r := range result.Rejected {
		uc.notifier.Notify(ctx, notification.ApplicationRejected(r.ApplicantID, ref, r.ID))
	}

	return &result, nil
}
