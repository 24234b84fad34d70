package task

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type DisputeTaskInput struct {
	TaskID       uuid.UUID
	ActorID      uuid.UUID
	Reason       string
	Description  string
	EvidenceURLs []string
}

// DisputeTaskUseCase - отказ заказчика подтвердить выполнение. Создает запись спора в той же транзакции.
type DisputeTaskUseCase struct {
	transitioner
	disputeRepo repository.DisputeRepository
	notifier    notification.Notifier
}

func NewDisputeTaskUseCase(taskRepo repository.TaskRepository, disputeRepo repository.DisputeRepository, txManager repository.TxManager, notifier notification.Notifier) *DisputeTaskUseCase {
	return &DisputeTaskUseCase{
		transitioner: transitioner{taskRepo, txManager},
		disputeRepo:  disputeRepo,
		notifier:     notifier,
	}
}

func (uc *DisputeTaskUseCase) Execute(ctx context.Context, input DisputeTaskInput) (*entity.Task, *entity.Dispute, error) {
	reason, err := valueobject.NewDisputeReason(input.Reason)
	if err != nil {
		return nil, nil, err
	}

	var dispute *entity.Dispute
	task, err := uc.run(ctx, input.TaskID, func(ctx context.Context, task *entity.Task) error {
		if !task.IsOwnedBy(input.ActorID) {
			return errNotCreator
		}
		if task.Status != valueobject.TaskStatusPendingConfirmation {
			return apperror.New(apperror.ErrCodeInvalidState, "оспорить можно только задачу, ожидающую подтверждения")
		}

		var err error
		dispute, err = entity.NewDispute(task.ID, input.ActorID, *task.AssignedWorkerID, reason, input.Description, input.EvidenceURLs)
		if err != nil {
			return err
		}

		existing, err := uc.disputeRepo.FindUnresolvedByTaskAndFiler(ctx, task.ID, input.ActorID)
		if err != nil {
			return err
		}
		if existing != nil {
			return apperror.New(apperror.ErrCodeConflict, "по этой задаче у вас уже есть открытый спор")
		}

		if err := task.OpenDispute(); err != nil {
			return err
		}
		return uc.disputeRepo.Create(ctx, dispute)
	})
	if err != nil {
		return nil, nil, err
	}

	uc.notifier.Notify(ctx, notification.TaskDisputed(*task.AssignedWorkerID, taskRef(task), dispute.ID))
	return task, dispute, nil
}
