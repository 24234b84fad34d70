package usecasetest

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
)

// SeedTask создает открытую задачу.
func (s *Store) SeedTask(t *testing.T, creatorID uuid.UUID) *entity.Task {
	t.Helper()
	task, err := entity.NewTask(creatorID, "Починить кран", "Течет кран на кухне, нужен мастер", nil, nil)
	require.NoError(t, err)
	require.NoError(t, s.Tasks().Create(context.Background(), task))
	return task
}

// SeedTaskInStatus создает задачу с исполнителем и переводит ее в нужный статус.
func (s *Store) SeedTaskInStatus(t *testing.T, creatorID, workerID uuid.UUID, status valueobject.TaskStatus) *entity.Task {
	t.Helper()
	task := s.SeedTask(t, creatorID)
	if status == valueobject.TaskStatusOpen {
		return task
	}
	require.NoError(t, task.Assign(workerID))

	steps := map[valueobject.TaskStatus][]func() error{
		valueobject.TaskStatusAssigned:            nil,
		valueobject.TaskStatusInProgress:          {task.Start},
		valueobject.TaskStatusPendingConfirmation: {task.Start, task.MarkDone},
		valueobject.TaskStatusCompleted:           {task.MarkDone, task.Confirm},
		valueobject.TaskStatusDisputed:            {task.MarkDone, task.OpenDispute},
		valueobject.TaskStatusCancelled:           {task.Cancel},
	}
	for _, step := range steps[status] {
		require.NoError(t, step())
	}
	require.Equal(t, status, task.Status)
	require.NoError(t, s.Tasks().Update(context.Background(), task))
	return task
}

func (s *Store) MustTask(t *testing.T, id uuid.UUID) *entity.Task {
	t.Helper()
	task, err := s.Tasks().FindByID(context.Background(), id)
	require.NoError(t, err)
	return task
}
