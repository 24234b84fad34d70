package service

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/models"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

// NotificationEvent - имя события websocket для нового уведомления.
const NotificationEvent = "notification"

// NotificationRepository описывает взаимодействие сервиса с хранилищем уведомлений.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// Broadcaster доставляет событие открытым websocket-соединениям пользователя.
type Broadcaster interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// NotificationService сохраняет уведомления и обслуживает входящие пользователя.
type NotificationService struct {
	repo        NotificationRepository
	broadcaster Broadcaster
}

// NewNotificationService создаёт новый сервис уведомлений. broadcaster может быть nil.
func NewNotificationService(repo NotificationRepository, broadcaster Broadcaster) *NotificationService {
	return &NotificationService{repo: repo, broadcaster: broadcaster}
}

// Deliver сохраняет уведомление и отправляет его в websocket.
// Ошибка websocket только логируется: уведомление уже доступно во входящих.
func (s *NotificationService) Deliver(ctx context.Context, n notification.Notification) error {
	model := &models.Notification{
		UserID:  n.UserID,
		Type:    string(n.Type),
		Title:   n.Title,
		Message: n.Message,
	}
	if n.RelatedType != "" {
		relatedType := n.RelatedType
		model.RelatedType = &relatedType
	}
	if n.RelatedID != uuid.Nil {
		relatedID := n.RelatedID
		model.RelatedID = &relatedID
	}
	if len(n.Data) > 0 {
		raw, err := json.Marshal(n.Data)
		if err != nil {
			return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сериализовать данные уведомления")
		}
		model.Data = types.JSONText(raw)
	}

	if err := s.repo.Create(ctx, model); err != nil {
		return err
	}

	if s.broadcaster != nil {
		if err := s.broadcaster.BroadcastToUser(model.UserID, NotificationEvent, model); err != nil {
			logger.L().WithFields(logrus.Fields{
				"user_id":         model.UserID,
				"notification_id": model.ID,
			}).WithError(err).Warn("notification push failed")
		}
	}
	return nil
}

// ListNotifications возвращает список уведомлений пользователя.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	return s.repo.List(ctx, userID, limit, offset, unreadOnly)
}

// GetNotification возвращает уведомление, если оно принадлежит пользователю.
func (s *NotificationService) GetNotification(ctx context.Context, id, userID uuid.UUID) (*models.Notification, error) {
	notification, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if notification.UserID != userID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "у вас нет прав на это уведомление")
	}
	return notification, nil
}

// MarkAsRead отмечает уведомление как прочитанное.
func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.GetNotification(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.MarkAsRead(ctx, id, userID)
}

// MarkAllAsRead отмечает все уведомления пользователя как прочитанные.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// DeleteNotification удаляет уведомление.
func (s *NotificationService) DeleteNotification(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.GetNotification(ctx, id, userID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, userID)
}

// CountUnread возвращает количество непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
