package notification

import (
	"context"

	"github.com/google/uuid"
)

type Type string

const (
	TypeNewApplication      Type = "new_application"
	TypeApplicationAccepted Type = "application_accepted"
	TypeApplicationRejected Type = "application_rejected"
	TypeTaskStarted         Type = "task_started"
	TypeTaskMarkedDone      Type = "task_marked_done"
	TypeTaskCompleted       Type = "task_completed"
	TypeReviewReminder      Type = "review_reminder"
	TypeTaskDisputed        Type = "task_disputed"
	TypeTaskCancelled       Type = "task_cancelled"
	TypeDisputeFiled        Type = "dispute_filed"
	TypeDisputeResponse     Type = "dispute_response"
	TypeDisputeResolved     Type = "dispute_resolved"
	TypePaymentHeld         Type = "payment_held"
	TypePaymentReleased     Type = "payment_released"
	TypePaymentRefunded     Type = "payment_refunded"
	TypePaymentFailed       Type = "payment_failed"
)

const (
	RelatedTask        = "task"
	RelatedApplication = "application"
	RelatedDispute     = "dispute"
	RelatedTransaction = "transaction"
)

// Notification - событие для пользователя. Доставка и хранение вне ядра.
type Notification struct {
	UserID      uuid.UUID
	Type        Type
	Title       string
	Message     string
	RelatedType string
	RelatedID   uuid.UUID
	Data        map[string]interface{}
}

// Notifier - порт, через который бизнес-логика отправляет уведомления.
// Реализация не возвращает ошибок: сбой доставки не влияет на уже выполненную операцию.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Sink - конечный получатель уведомлений (хранилище, websocket и т.п.).
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}
