package task

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
)

// transitioner - общий каркас перехода: блокировка строки, проверка, запись, коммит.
type transitioner struct {
	taskRepo  repository.TaskRepository
	txManager repository.TxManager
}

func (t transitioner) run(ctx context.Context, taskID uuid.UUID, apply func(ctx context.Context, task *entity.Task) error) (*entity.Task, error) {
	var task *entity.Task
	err := t.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		task, err = t.taskRepo.FindByIDForUpdate(ctx, taskID)
		if err != nil {
			return err
		}
		if err := apply(ctx, task); err != nil {
			return err
		}
		return t.taskRepo.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	metrics.TaskTransitions.WithLabelValues(string(task.Status)).Inc()
	logger.L().WithFields(logrus.Fields{
		"task_id": task.ID,
		"status":  task.Status,
	}).Info("task transitioned")
	return task, nil
}

func taskRef(task *entity.Task) notification.TaskRef {
	return notification.TaskRef{ID: task.ID, Title: task.Title}
}
