package dispute

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type ResolveInput struct {
	DisputeID  uuid.UUID
	Resolution string
	Notes      string
}

type ResolveResult struct {
	Dispute *entity.Dispute
	Task    *entity.Task
	// Penalty - отзыв с оценкой 1, если решение его предусматривает.
	Penalty *entity.Review
}

type ResolveUseCase struct {
	taskRepo        repository.TaskRepository
	disputeRepo     repository.DisputeRepository
	reviewRepo      repository.ReviewRepository
	applicationRepo repository.ApplicationRepository
	txManager       repository.TxManager
	notifier        notification.Notifier
}

func NewResolveUseCase(taskRepo repository.TaskRepository, disputeRepo repository.DisputeRepository, reviewRepo repository.ReviewRepository, applicationRepo repository.ApplicationRepository, txManager repository.TxManager, notifier notification.Notifier) *ResolveUseCase {
	return &ResolveUseCase{
		taskRepo:        taskRepo,
		disputeRepo:     disputeRepo,
		reviewRepo:      reviewRepo,
		applicationRepo: applicationRepo,
		txManager:       txManager,
		notifier:        notifier,
	}
}

// Execute решает спор. Решение спора, статус задачи и штрафной отзыв фиксируются одной транзакцией.
// Денежные операции (возврат или выплата) выполняются отдельно через эскроу.
func (uc *ResolveUseCase) Execute(ctx context.Context, input ResolveInput, actor auth.Actor) (*ResolveResult, error) {
	if !actor.IsAdmin {
		return nil, apperror.ErrAdminOnly
	}
	resolution, err := valueobject.NewResolution(input.Resolution)
	if err != nil {
		return nil, err
	}

	var (
		result   ResolveResult
		workerID uuid.UUID
	)
	err = uc.txManager.WithinTx(ctx, func(ctx context.Context) error {
		dispute, err := uc.disputeRepo.FindByIDForUpdate(ctx, input.DisputeID)
		if err != nil {
			return err
		}
		if dispute.IsResolved() {
			return apperror.New(apperror.ErrCodeInvalidState, "спор уже решен")
		}

		task, err := uc.taskRepo.FindByIDForUpdate(ctx, dispute.TaskID)
		if err != nil {
			return err
		}
		if task.AssignedWorkerID == nil {
			return apperror.New(apperror.ErrCodeInvalidState, "у задачи нет исполнителя")
		}
		// сброс задачи очищает исполнителя, запоминаем его заранее
		workerID = *task.AssignedWorkerID

		if err := task.ApplyResolution(resolution); err != nil {
			return err
		}
		// задача снова открыта: заявка снятого исполнителя больше не принята
		if task.Status == valueobject.TaskStatusOpen {
			if _, err := uc.applicationRepo.RejectAccepted(ctx, task.ID); err != nil {
				return err
			}
		}
		if err := dispute.Resolve(actor.UserID, resolution, input.Notes); err != nil {
			return err
		}

		penalty := penaltyFor(resolution, task, workerID, actor.UserID, input.Notes)
		if penalty != nil {
			if err := uc.reviewRepo.Upsert(ctx, penalty); err != nil {
				return err
			}
		}

		if err := uc.disputeRepo.Update(ctx, dispute); err != nil {
			return err
		}
		if err := uc.taskRepo.Update(ctx, task); err != nil {
			return err
		}

		result = ResolveResult{Dispute: dispute, Task: task, Penalty: penalty}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.DisputeResolutions.WithLabelValues(string(resolution)).Inc()
	metrics.TaskTransitions.WithLabelValues(string(result.Task.Status)).Inc()
	logger.L().WithFields(logrus.Fields{
		"dispute_id": result.Dispute.ID,
		"task_id":    result.Task.ID,
		"resolution": resolution,
		"admin_id":   actor.UserID,
	}).Info("dispute resolved")

	ref := taskRef(result.Task)
	creatorID := result.Task.CreatorID
	uc.notifier.Notify(ctx, notification.DisputeResolved(creatorID, ref, result.Dispute.ID, string(resolution), creatorMessage(resolution, ref.Title)))
	uc.notifier.Notify(ctx, notification.DisputeResolved(workerID, ref, result.Dispute.ID, string(resolution), workerMessage(resolution, ref.Title)))

	return &result, nil
}

func penaltyFor(resolution valueobject.Resolution, task *entity.Task, workerID, adminID uuid.UUID, notes string) *entity.Review {
	comment := "Решение по спору"
	if notes != "" {
		comment = fmt.Sprintf("Решение по спору: %s", notes)
	}
	switch resolution {
	case valueobject.ResolutionRefund:
		return entity.NewPenaltyReview(task.ID, adminID, workerID, comment)
	case valueobject.ResolutionPayWorker:
		return entity.NewPenaltyReview(task.ID, adminID, task.CreatorID, comment)
	}
	return nil
}

func creatorMessage(resolution valueobject.Resolution, title string) string {
	switch resolution {
	case valueobject.ResolutionRefund:
		return fmt.Sprintf("Спор по задаче «%s» решен в вашу пользу, средства будут возвращены", title)
	case valueobject.ResolutionPayWorker:
		return fmt.Sprintf("Спор по задаче «%s» решен в пользу исполнителя", title)
	case valueobject.ResolutionPartial:
		return fmt.Sprintf("Спор по задаче «%s» решен частичной оплатой", title)
	default:
		return fmt.Sprintf("Спор по задаче «%s» закрыт, задача снова открыта", title)
	}
}

func workerMessage(resolution valueobject.Resolution, title string) string {
	switch resolution {
	case valueobject.ResolutionRefund:
		return fmt.Sprintf("Спор по задаче «%s» решен в пользу заказчика", title)
	case valueobject.ResolutionPayWorker:
		return fmt.Sprintf("Спор по задаче «%s» решен в вашу пользу, оплата будет переведена", title)
	case valueobject.ResolutionPartial:
		return fmt.Sprintf("Спор по задаче «%s» решен частичной оплатой", title)
	default:
		return fmt.Sprintf("Спор по задаче «%s» закрыт, вы сняты с задачи", title)
	}
}
