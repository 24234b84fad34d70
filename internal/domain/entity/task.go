package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskmarket-backend/internal/validation"
)

type Task struct {
	ID               uuid.UUID
	CreatorID        uuid.UUID
	AssignedWorkerID *uuid.UUID
	Title            string
	Description      string
	Budget           *valueobject.Money
	Deadline         *time.Time
	Status           valueobject.TaskStatus
	TransactionID    *uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CompletedAt      *time.Time
}

func NewTask(creatorID uuid.UUID, title, description string, budget *valueobject.Money, deadline *time.Time) (*Task, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if err := validation.ValidateTaskTitle(title); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateTaskDescription(description); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if budget != nil && budget.Amount < 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "бюджет не может быть отрицательным")
	}
	if deadline != nil && deadline.Before(time.Now()) {
		return nil, apperror.New(apperror.ErrCodeValidation, "дедлайн не может быть в прошлом")
	}

	now := time.Now()
	return &Task{
		ID:          uuid.New(),
		CreatorID:   creatorID,
		Title:       title,
		Description: description,
		Budget:      budget,
		Deadline:    deadline,
		Status:      valueobject.TaskStatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (t *Task) transition(next valueobject.TaskStatus, message string) error {
	if !t.Status.CanTransitionTo(next) {
		return apperror.New(apperror.ErrCodeInvalidState, message)
	}
	t.Status = next
	t.UpdatedAt = time.Now()
	return nil
}

// Assign закрепляет задачу за исполнителем. Работает только для открытой задачи.
func (t *Task) Assign(workerID uuid.UUID) error {
	if err := t.transition(valueobject.TaskStatusAssigned, "задача уже не принимает заявки"); err != nil {
		return err
	}
	t.AssignedWorkerID = &workerID
	return nil
}

func (t *Task) Start() error {
	return t.transition(valueobject.TaskStatusInProgress, "начать можно только назначенную задачу")
}

func (t *Task) MarkDone() error {
	return t.transition(valueobject.TaskStatusPendingConfirmation, "отметить выполненной можно только задачу в работе")
}

func (t *Task) Confirm() error {
	if t.Status != valueobject.TaskStatusPendingConfirmation {
		return apperror.New(apperror.ErrCodeInvalidState, "задача не ожидает подтверждения")
	}
	if err := t.transition(valueobject.TaskStatusCompleted, "задача не ожидает подтверждения"); err != nil {
		return err
	}
	t.CompletedAt = &t.UpdatedAt
	return nil
}

// OpenDispute переводит задачу в спор. Проверка права стороны на спор выполняется в CanBeDisputedBy.
func (t *Task) OpenDispute() error {
	return t.transition(valueobject.TaskStatusDisputed, "по задаче в текущем статусе нельзя открыть спор")
}

func (t *Task) Cancel() error {
	return t.transition(valueobject.TaskStatusCancelled, "задачу в текущем статусе нельзя отменить")
}

// ApplyResolution применяет решение спора к задаче, находящейся в споре.
// Отмененная заказчиком задача остается отмененной: спор решается без смены статуса.
func (t *Task) ApplyResolution(resolution valueobject.Resolution) error {
	if t.Status == valueobject.TaskStatusCancelled {
		return nil
	}
	if t.Status != valueobject.TaskStatusDisputed {
		return apperror.New(apperror.ErrCodeInvalidState, "задача не находится в споре")
	}
	next := resolution.TaskOutcome()
	if err := t.transition(next, "решение спора неприменимо к задаче"); err != nil {
		return err
	}
	switch next {
	case valueobject.TaskStatusCompleted:
		t.CompletedAt = &t.UpdatedAt
	case valueobject.TaskStatusOpen:
		t.AssignedWorkerID = nil
		t.CompletedAt = nil
	}
	return nil
}

func (t *Task) LinkTransaction(transactionID uuid.UUID) {
	t.TransactionID = &transactionID
	t.UpdatedAt = time.Now()
}

func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	return t.CreatorID == userID
}

func (t *Task) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssignedWorkerID != nil && *t.AssignedWorkerID == userID
}

func (t *Task) IsParticipant(userID uuid.UUID) bool {
	return t.IsOwnedBy(userID) || t.IsAssignedTo(userID)
}

func (t *Task) IsFinished() bool {
	return t.Status == valueobject.TaskStatusCompleted || t.Status == valueobject.TaskStatusCancelled
}

var (
	workerDisputeStatuses = []valueobject.TaskStatus{
		valueobject.TaskStatusAssigned,
		valueobject.TaskStatusInProgress,
		valueobject.TaskStatusPendingConfirmation,
		valueobject.TaskStatusCompleted,
	}
	creatorDisputeStatuses = []valueobject.TaskStatus{
		valueobject.TaskStatusInProgress,
		valueobject.TaskStatusPendingConfirmation,
		valueobject.TaskStatusCompleted,
	}
)

// CanBeDisputedBy возвращает вторую сторону спора.
// Forbidden, если пользователь не участник задачи; InvalidState, если статус не допускает спор для его роли.
func (t *Task) CanBeDisputedBy(userID uuid.UUID) (uuid.UUID, error) {
	var allowed []valueobject.TaskStatus
	var counterparty uuid.UUID
	switch {
	case t.IsAssignedTo(userID):
		allowed, counterparty = workerDisputeStatuses, t.CreatorID
	case t.IsOwnedBy(userID):
		if t.AssignedWorkerID == nil {
			return uuid.Nil, apperror.New(apperror.ErrCodeInvalidState, "у задачи нет исполнителя")
		}
		allowed, counterparty = creatorDisputeStatuses, *t.AssignedWorkerID
	default:
		return uuid.Nil, apperror.New(apperror.ErrCodeForbidden, "спор может открыть только участник задачи")
	}
	for _, s := range allowed {
		if t.Status == s {
			return counterparty, nil
		}
	}
	return uuid.Nil, apperror.New(apperror.ErrCodeInvalidState, "по задаче в текущем статусе нельзя открыть спор")
}
