package dispute

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
)

type RespondInput struct {
	DisputeID    uuid.UUID
	ResponderID  uuid.UUID
	Description  string
	EvidenceURLs []string
}

type RespondUseCase struct {
	taskRepo    repository.TaskRepository
	disputeRepo repository.DisputeRepository
	txManager   repository.TxManager
	notifier    notification.Notifier
}

func NewRespondUseCase(taskRepo repository.TaskRepository, disputeRepo repository.DisputeRepository, txManager repository.TxManager, notifier notification.Notifier) *RespondUseCase {
	return &RespondUseCase{
		taskRepo:    taskRepo,
		disputeRepo: disputeRepo,
		txManager:   txManager,
		notifier:    notifier,
	}
}

func (uc *RespondUseCase) Execute(ctx context.Context, input RespondInput) (*entity.Dispute, error) {
	var dispute *entity.Dispute
	err := uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		dispute, err = uc.disputeRepo.FindByIDForUpdate(ctx, input.DisputeID)
		if err != nil {
			return err
		}
		if err := dispute.Respond(input.ResponderID, input.Description, input.EvidenceURLs); err != nil {
			return err
		}
		return uc.disputeRepo.Update(ctx, dispute)
	})
	if err != nil {
		return nil, err
	}

	task, err := uc.taskRepo.FindByID(ctx, dispute.TaskID)
	if err == nil {
		uc.notifier.Notify(ctx, notification.DisputeResponse(dispute.FiledByID, taskRef(task), dispute.ID))
	}
	return dispute, nil
}
