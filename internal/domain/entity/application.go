package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

const MaxApplicationMessageLength = 2000

type Application struct {
	ID          uuid.UUID
	TaskID      uuid.UUID
	ApplicantID uuid.UUID
	Status      valueobject.ApplicationStatus
	Message     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewApplication(taskID, applicantID uuid.UUID, message string) (*Application, error) {
	message = strings.TrimSpace(message)
	if len([]rune(message)) > MaxApplicationMessageLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "сообщение заявки слишком длинное")
	}
	now := time.Now()
	return &Application{
		ID:          uuid.New(),
		TaskID:      taskID,
		ApplicantID: applicantID,
		Status:      valueobject.ApplicationStatusPending,
		Message:     message,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (a *Application) Accept() error {
	if a.Status != valueobject.ApplicationStatusPending {
		return apperror.New(apperror.ErrCodeInvalidState, "заявка уже обработана")
	}
	a.Status = valueobject.ApplicationStatusAccepted
	a.UpdatedAt = time.Now()
	return nil
}

func (a *Application) Reject() error {
	if a.Status != valueobject.ApplicationStatusPending {
		return apperror.New(apperror.ErrCodeInvalidState, "заявка уже обработана")
	}
	a.Status = valueobject.ApplicationStatusRejected
	a.UpdatedAt = time.Now()
	return nil
}

// Revoke снимает принятую заявку, когда исполнителя убирают с задачи.
func (a *Application) Revoke() error {
	if a.Status != valueobject.ApplicationStatusAccepted {
		return apperror.New(apperror.ErrCodeInvalidState, "заявка не принята")
	}
	a.Status = valueobject.ApplicationStatusRejected
	a.UpdatedAt = time.Now()
	return nil
}

func (a *Application) IsOwnedBy(userID uuid.UUID) bool {
	return a.ApplicantID == userID
}

func (a *Application) IsPending() bool {
	return a.Status == valueobject.ApplicationStatusPending
}

func (a *Application) BelongsTo(taskID uuid.UUID) bool {
	return a.TaskID == taskID
}
