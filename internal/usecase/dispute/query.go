package dispute

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type QueryUseCase struct {
	taskRepo    repository.TaskRepository
	disputeRepo repository.DisputeRepository
}

func NewQueryUseCase(taskRepo repository.TaskRepository, disputeRepo repository.DisputeRepository) *QueryUseCase {
	return &QueryUseCase{
		taskRepo:    taskRepo,
		disputeRepo: disputeRepo,
	}
}

func parseStatus(status string) (*valueobject.DisputeStatus, error) {
	if status == "" {
		return nil, nil
	}
	s, err := valueobject.NewDisputeStatus(status)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List возвращает споры, где пользователь является стороной.
func (uc *QueryUseCase) List(ctx context.Context, actor auth.Actor, status string) ([]*entity.Dispute, error) {
	filter, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	return uc.disputeRepo.FindByUserID(ctx, actor.UserID, filter)
}

func (uc *QueryUseCase) ListAll(ctx context.Context, actor auth.Actor, status string) ([]*entity.Dispute, error) {
	if !actor.IsAdmin {
		return nil, apperror.ErrAdminOnly
	}
	filter, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	return uc.disputeRepo.FindAll(ctx, filter)
}

func (uc *QueryUseCase) Get(ctx context.Context, disputeID uuid.UUID, actor auth.Actor) (*entity.Dispute, error) {
	dispute, err := uc.disputeRepo.FindByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !dispute.IsParty(actor.UserID) && !actor.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	return dispute, nil
}

func (uc *QueryUseCase) ListForTask(ctx context.Context, taskID uuid.UUID, actor auth.Actor) ([]*entity.Dispute, error) {
	task, err := uc.taskRepo.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsParticipant(actor.UserID) && !actor.IsAdmin {
		return nil, apperror.ErrForbidden
	}
	return uc.disputeRepo.FindByTaskID(ctx, taskID)
}

func (uc *QueryUseCase) Reasons() []valueobject.ReasonInfo {
	return valueobject.DisputeReasons()
}
