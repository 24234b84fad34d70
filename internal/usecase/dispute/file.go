package dispute

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type FileInput struct {
	TaskID       uuid.UUID
	FilerID      uuid.UUID
	Reason       string
	Description  string
	EvidenceURLs []string
}

type FileDisputeUseCase struct {
	taskRepo    repository.TaskRepository
	disputeRepo repository.DisputeRepository
	txManager   repository.TxManager
	notifier    notification.Notifier
}

func NewFileDisputeUseCase(taskRepo repository.TaskRepository, disputeRepo repository.DisputeRepository, txManager repository.TxManager, notifier notification.Notifier) *FileDisputeUseCase {
	return &FileDisputeUseCase{
		taskRepo:    taskRepo,
		disputeRepo: disputeRepo,
		txManager:   txManager,
		notifier:    notifier,
	}
}

func (uc *FileDisputeUseCase) Execute(ctx context.Context, input FileInput) (*entity.Dispute, error) {
	reason, err := valueobject.NewDisputeReason(input.Reason)
	if err != nil {
		return nil, err
	}
	// вторая сторона определяется ниже, по задаче
	dispute, err := entity.NewDispute(input.TaskID, input.FilerID, uuid.Nil, reason, input.Description, input.EvidenceURLs)
	if err != nil {
		return nil, err
	}

	var task *entity.Task
	err = uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		task, err = uc.taskRepo.FindByIDForUpdate(ctx, input.TaskID)
		if err != nil {
			return err
		}

		existing, err := uc.disputeRepo.FindUnresolvedByTaskAndFiler(ctx, task.ID, input.FilerID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.New(apperror.ErrCodeConflict, "по этой задаче у вас уже есть открытый спор")
		}

		counterparty, err := task.CanBeDisputedBy(input.FilerID)
		if err != nil {
			return err
		}

		if err := task.OpenDispute(); err != nil {
			return err
		}
		dispute.FiledAgainstID = counterparty

		if err := uc.disputeRepo.Create(ctx, dispute); err != nil {
			if apperror.IsConflict(err) {
				return apperror.New(apperror.ErrCodeConflict, "по этой задаче у вас уже есть открытый спор")
			}
			return err
		}
		return uc.taskRepo.Update(ctx, task)
	})
	if err != nil {
		return nil, err
	}

	metrics.TaskTransitions.WithLabelValues(string(task.Status)).Inc()
	logger.L().WithFields(logrus.Fields{
		"task_id":    task.ID,
		"dispute_id": dispute.ID,
		"filed_by":   dispute.FiledByID,
		"reason":     dispute.Reason,
	}).Info("dispute filed")

	uc.notifier.Notify(ctx, notification.DisputeFiled(dispute.FiledAgainstID, taskRef(task), dispute.ID, dispute.Reason.Label()))
	return dispute, nil
}

func taskRef(task *entity.Task) notification.TaskRef {
	return notification.TaskRef{ID: task.ID, Title: task.Title}
}
