package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
)

type ApplicationRepository interface {
	Create(ctx context.Context, application *entity.Application) error
	Update(ctx context.Context, application *entity.Application) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Application, error)
	FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*entity.Application, error)
	FindByApplicantID(ctx context.Context, applicantID uuid.UUID) ([]*entity.Application, error)
	// FindByTaskAndApplicant возвращает nil, nil если заявки нет.
	FindByTaskAndApplicant(ctx context.Context, taskID, applicantID uuid.UUID) (*entity.Application, error)
	// RejectPendingExcept отклоняет все ожидающие заявки задачи, кроме exceptID, и возвращает их.
	RejectPendingExcept(ctx context.Context, taskID, exceptID uuid.UUID) ([]*entity.Application, error)
	// RejectAccepted переводит принятую заявку задачи в rejected. Ожидающие и отклоненные не трогает.
	RejectAccepted(ctx context.Context, taskID uuid.UUID) ([]*entity.Application, error)
}
