package valueobject

import "github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"

type TaskStatus string

const (
	TaskStatusOpen                TaskStatus = "open"
	TaskStatusAssigned            TaskStatus = "assigned"
	TaskStatusInProgress          TaskStatus = "in_progress"
	TaskStatusPendingConfirmation TaskStatus = "pending_confirmation"
	TaskStatusCompleted           TaskStatus = "completed"
	TaskStatusDisputed            TaskStatus = "disputed"
	TaskStatusCancelled           TaskStatus = "cancelled"
)

// taskTransitions: completed -> disputed оставлено для споров после подтверждения.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusOpen:                {TaskStatusAssigned, TaskStatusCancelled},
	TaskStatusAssigned:            {TaskStatusInProgress, TaskStatusPendingConfirmation, TaskStatusDisputed, TaskStatusCancelled},
	TaskStatusInProgress:          {TaskStatusPendingConfirmation, TaskStatusDisputed, TaskStatusCancelled},
	TaskStatusPendingConfirmation: {TaskStatusCompleted, TaskStatusDisputed, TaskStatusCancelled},
	TaskStatusCompleted:           {TaskStatusDisputed},
	TaskStatusDisputed:            {TaskStatusCompleted, TaskStatusCancelled, TaskStatusOpen},
	TaskStatusCancelled:           {},
}

func (s TaskStatus) IsValid() bool {
	_, ok := taskTransitions[s]
	return ok
}

func (s TaskStatus) CanTransitionTo(newStatus TaskStatus) bool {
	for _, status := range taskTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewTaskStatus(status string) (TaskStatus, error) {
	s := TaskStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус задачи")
	}
	return s, nil
}

type ApplicationStatus string

const (
	ApplicationStatusPending  ApplicationStatus = "pending"
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	ApplicationStatusRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAccepted, ApplicationStatusRejected:
		return true
	}
	return false
}

type TransactionStatus string

const (
	TransactionStatusPending           TransactionStatus = "pending"
	TransactionStatusHeld              TransactionStatus = "held"
	TransactionStatusReleased          TransactionStatus = "released"
	TransactionStatusRefunded          TransactionStatus = "refunded"
	TransactionStatusPartiallyRefunded TransactionStatus = "partially_refunded"
	TransactionStatusFailed            TransactionStatus = "failed"
)

func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusHeld, TransactionStatusReleased,
		TransactionStatusRefunded, TransactionStatusPartiallyRefunded, TransactionStatusFailed:
		return true
	}
	return false
}

// IsActive: деньги еще не покинули эскроу.
func (s TransactionStatus) IsActive() bool {
	return s == TransactionStatusPending || s == TransactionStatusHeld
}

func NewTransactionStatus(status string) (TransactionStatus, error) {
	s := TransactionStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус транзакции")
	}
	return s, nil
}

type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "open"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusResolved    DisputeStatus = "resolved"
)

func (s DisputeStatus) IsValid() bool {
	switch s {
	case DisputeStatusOpen, DisputeStatusUnderReview, DisputeStatusResolved:
		return true
	}
	return false
}

func NewDisputeStatus(status string) (DisputeStatus, error) {
	s := DisputeStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус спора")
	}
	return s, nil
}
