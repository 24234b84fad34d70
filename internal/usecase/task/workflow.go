package task

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

var (
	errNotWorker  = apperror.New(apperror.ErrCodeForbidden, "действие доступно только назначенному исполнителю")
	errNotCreator = apperror.New(apperror.ErrCodeForbidden, "действие доступно только автору задачи")
)

type StartTaskUseCase struct {
	transitioner
	notifier notification.Notifier
}

func NewStartTaskUseCase(taskRepo repository.TaskRepository, txManager repository.TxManager, notifier notification.Notifier) *StartTaskUseCase {
	return &StartTaskUseCase{transitioner: transitioner{taskRepo, txManager}, notifier: notifier}
}

func (uc *StartTaskUseCase) Execute(ctx context.Context, taskID, actorID uuid.UUID) (*entity.Task, error) {
	task, err := uc.run(ctx, taskID, func(ctx context.Context, task *entity.Task) error {
		if !task.IsAssignedTo(actorID) {
			return errNotWorker
		}
		return task.Start()
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Notify(ctx, notification.TaskStarted(task.CreatorID, taskRef(task)))
	return task, nil
}

type MarkDoneUseCase struct {
	transitioner
	notifier notification.Notifier
}

func NewMarkDoneUseCase(taskRepo repository.TaskRepository, txManager repository.TxManager, notifier notification.Notifier) *MarkDoneUseCase {
	return &MarkDoneUseCase{transitioner: transitioner{taskRepo, txManager}, notifier: notifier}
}

func (uc *MarkDoneUseCase) Execute(ctx context.Context, taskID, actorID uuid.UUID) (*entity.Task, error) {
	task, err := uc.run(ctx, taskID, func(ctx context.Context, task *entity.Task) error {
		if !task.IsAssignedTo(actorID) {
			return errNotWorker
		}
		return task.MarkDone()
	})
	if err != nil {
		return nil, err
	}
	uc.notifier.Notify(ctx, notification.TaskMarkedDone(task.CreatorID, taskRef(task)))
	return task, nil
}

type ConfirmUseCase struct {
	transitioner
	notifier notification.Notifier
}

func NewConfirmUseCase(taskRepo repository.TaskRepository, txManager repository.TxManager, notifier notification.Notifier) *ConfirmUseCase {
	return &ConfirmUseCase{transitioner: transitioner{taskRepo, txManager}, notifier: notifier}
}

func (uc *ConfirmUseCase) Execute(ctx context.Context, taskID, actorID uuid.UUID) (*entity.Task, error) {
	task, err := uc.run(ctx, taskID, func(ctx context.Context, task *entity.Task) error {
		if !task.IsOwnedBy(actorID) {
			return errNotCreator
		}
		return task.Confirm()
	})
	if err != nil {
		return nil, err
	}

	ref := taskRef(task)
	worker := *task.AssignedWorkerID
	uc.notifier.Notify(ctx, notification.TaskCompleted(worker, ref))
	uc.notifier.Notify(ctx, notification.ReviewReminder(worker, ref, task.CreatorID))
	uc.notifier.Notify(ctx, notification.ReviewReminder(task.CreatorID, ref, worker))
	return task, nil
}

type CancelUseCase struct {
	transitioner
	notifier notification.Notifier
}

func NewCancelUseCase(taskRepo repository.TaskRepository, txManager repository.TxManager, notifier notification.Notifier) *CancelUseCase {
	return &CancelUseCase{transitioner: transitioner{taskRepo, txManager}, notifier: notifier}
}

func (uc *CancelUseCase) Execute(ctx context.Context, taskID, actorID uuid.UUID) (*entity.Task, error) {
	task, err := uc.run(ctx, taskID, func(ctx context.Context, task *entity.Task) error {
		if !task.IsOwnedBy(actorID) {
			return errNotCreator
		}
		return task.Cancel()
	})
	if err != nil {
		return nil, err
	}
	if task.AssignedWorkerID != nil {
		uc.notifier.Notify(ctx, notification.TaskCancelled(*task.AssignedWorkerID, taskRef(task)))
	}
	return task, nil
}
