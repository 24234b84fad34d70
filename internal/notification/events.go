package notification

import (
	"fmt"

	"github.com/google/uuid"
)

// TaskRef - минимум данных о задаче для текста уведомления.
type TaskRef struct {
	ID    uuid.UUID
	Title string
}

func taskData(task TaskRef, extra map[string]interface{}) map[string]interface{} {
	data := map[string]interface{}{
		"task_id":    task.ID,
		"task_title": task.Title,
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

func NewApplication(creatorID uuid.UUID, task TaskRef, applicationID, applicantID uuid.UUID) Notification {
	return Notification{
		UserID:      creatorID,
		Type:        TypeNewApplication,
		Title:       "Новая заявка",
		Message:     fmt.Sprintf("На задачу «%s» поступила новая заявка", task.Title),
		RelatedType: RelatedApplication,
		RelatedID:   applicationID,
		Data:        taskData(task, map[string]interface{}{"application_id": applicationID, "applicant_id": applicantID}),
	}
}

func ApplicationAccepted(applicantID uuid.UUID, task TaskRef, applicationID uuid.UUID) Notification {
	return Notification{
		UserID:      applicantID,
		Type:        TypeApplicationAccepted,
		Title:       "Заявка принята",
		Message:     fmt.Sprintf("Вас выбрали исполнителем задачи «%s»", task.Title),
		RelatedType: RelatedTask,
		RelatedID:   task.ID,
		Data:        taskData(task, map[string]interface{}{"application_id": applicationID}),
	}
}

func ApplicationRejected(applicantID uuid.UUID, task TaskRef, applicationID uuid.UUID) Notification {
	return Notification{
		UserID:      applicantID,
		Type:        TypeApplicationRejected,
		Title:       "Заявка отклонена",
		Message:     fmt.Sprintf("Ваша заявка на задачу «%s» отклонена", task.Title),
		RelatedType: RelatedApplication,
		RelatedID:   applicationID,
		Data:        taskData(task, map[string]interface{}{"application_id": applicationID}),
	}
}

func TaskStarted(creatorID uuid.UUID, task TaskRef) Notification {
	return Notification{
		UserID:      creatorID,
		Type:        TypeTaskStarted,
		Title:       "Работа началась",
		Message:     fmt.Sprintf("Исполнитель приступил к задаче «%s»", task.Title),
		RelatedType: RelatedTask,
		RelatedID:   task.ID,
		Data:        taskData(task, nil),
	}
}

func TaskMarkedDone(creatorID uuid.UUID, task TaskRef) Notification {
	return Notification{
		UserID:      creatorID,
		Type:        TypeTaskMarkedDone,
		Title:       "Задача выполнена",
		Message:     fmt.Sprintf("Исполнитель отметил задачу «%s» выполненной. Подтвердите завершение", task.Title),
		RelatedType: RelatedTask,
		RelatedID:   task.ID,
		Data:        taskData(task, nil),
	}
}

func TaskCompleted(workerID uuid.UUID, task TaskRef) Notification {
	return Notification{
		UserID:      workerID,
		Type:        TypeTaskCompleted,
		Title:       "Задача подтверждена",
		Message:     fmt.Sprintf("Заказчик подтвердил выполнение задачи «%s»", task.Title),
		RelatedType: RelatedTask,
		RelatedID:   task.ID,
		Data:        taskData(task, nil),
	}
}

func ReviewReminder(userID uuid.UUID, task TaskRef, revieweeID uuid.UUID) Notification {
	return Notification{
		UserID:      userID,
		Type:        TypeReviewReminder,
		Title:       "Оставьте отзыв",
		Message:     fmt.Sprintf("Задача «%s» завершена. Оцените вторую сторону", task.Title),
		RelatedType: RelatedTask,
		RelatedID:   task.ID,
		Data:        taskData(task, map[string]interface{}{"reviewee_id": revieweeID}),
	}
}

func TaskDisputed(workerID uuid.UUID, task TaskRef, disputeID uuid.UUID) Notification {
	return Notification{
		UserID:      workerID,
		Type:        TypeTaskDisputed,
		Title:       "Выполнение оспорено",
		Message:     fmt.Sprintf("Заказчик оспорил выполнение задачи «%s»", task.Title),
		RelatedType: RelatedDispute,
		RelatedID:   disputeID,
		Data:        taskData(task, map[string]interface{}{"dispute_id": disputeID}),
	}
}

func TaskCancelled(workerID uuid.UUID, task TaskRef) Notification {
	return Notification{
		UserID:      workerID,
		Type:        TypeTaskCancelled,
		Title:       "Задача отменена",
		Message:     fmt.Sprintf("Заказчик отменил задачу «%s»", task.Title),
		RelatedType: RelatedTask,
		RelatedID:   task.ID,
		Data:        taskData(task, nil),
	}
}

func DisputeFiled(counterpartyID uuid.UUID, task TaskRef, disputeID uuid.UUID, reasonLabel string) Notification {
	return Notification{
		UserID:      counterpartyID,
		Type:        TypeDisputeFiled,
		Title:       "Открыт спор",
		Message:     fmt.Sprintf("По задаче «%s» открыт спор: %s", task.Title, reasonLabel),
		RelatedType: RelatedDispute,
		RelatedID:   disputeID,
		Data:        taskData(task, map[string]interface{}{"dispute_id": disputeID, "reason": reasonLabel}),
	}
}

func DisputeResponse(filerID uuid.UUID, task TaskRef, disputeID uuid.UUID) Notification {
	return Notification{
		UserID:      filerID,
		Type:        TypeDisputeResponse,
		Title:       "Ответ на спор",
		Message:     fmt.Sprintf("Вторая сторона ответила на спор по задаче «%s»", task.Title),
		RelatedType: RelatedDispute,
		RelatedID:   disputeID,
		Data:        taskData(task, map[string]interface{}{"dispute_id": disputeID}),
	}
}

func DisputeResolved(userID uuid.UUID, task TaskRef, disputeID uuid.UUID, resolution, message string) Notification {
	return Notification{
		UserID:      userID,
		Type:        TypeDisputeResolved,
		Title:       "Спор решен",
		Message:     message,
		RelatedType: RelatedDispute,
		RelatedID:   disputeID,
		Data:        taskData(task, map[string]interface{}{"dispute_id": disputeID, "resolution": resolution}),
	}
}

func Payment(userID uuid.UUID, typ Type, transactionID, taskID uuid.UUID, amount int64, currency string) Notification {
	titles := map[Type]string{
		TypePaymentHeld:     "Оплата зарезервирована",
		TypePaymentReleased: "Оплата переведена",
		TypePaymentRefunded: "Оплата возвращена",
		TypePaymentFailed:   "Оплата не прошла",
	}
	return Notification{
		UserID:      userID,
		Type:        typ,
		Title:       titles[typ],
		Message:     fmt.Sprintf("%s: %d.%02d %s", titles[typ], amount/100, amount%100, currency),
		RelatedType: RelatedTransaction,
		RelatedID:   transactionID,
		Data: map[string]interface{}{
			"transaction_id": transactionID,
			"task_id":        taskID,
			"amount":         amount,
			"currency":       currency,
		},
	}
}
