package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskmarket-backend/internal/models"
	"github.com/ignatzorin/taskmarket-backend/internal/notification"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type mockNotificationRepo struct {
	mock.Mock
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	args := m.Called(ctx, n)
	if args.Error(0) == nil {
		n.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error) {
	args := m.Called(ctx, userID, limit, offset, unreadOnly)
	return args.Get(0).([]models.Notification), args.Error(1)
}

func (m *mockNotificationRepo) MarkAsRead(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockNotificationRepo) MarkAllAsRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockNotificationRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

type mockBroadcaster struct {
	mock.Mock
}

func (m *mockBroadcaster) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	return m.Called(userID, event, data).Error(0)
}

func TestNotificationService_Deliver_PersistsAndPushes(t *testing.T) {
	repo := new(mockNotificationRepo)
	hub := new(mockBroadcaster)
	svc := NewNotificationService(repo, hub)

	userID, taskID := uuid.New(), uuid.New()
	n := notification.TaskStarted(userID, notification.TaskRef{ID: taskID, Title: "Покраска"})

	repo.On("Create", mock.Anything, mock.MatchedBy(func(m *models.Notification) bool {
		return m.UserID == userID && m.Type == string(notification.TypeTaskStarted) &&
			m.RelatedID != nil && *m.RelatedID == taskID
	})).Return(nil)
	hub.On("BroadcastToUser", userID, NotificationEvent, mock.AnythingOfType("*models.Notification")).Return(nil)

	require.NoError(t, svc.Deliver(context.Background(), n))
	repo.AssertExpectations(t)
	hub.AssertExpectations(t)
}

func TestNotificationService_Deliver_StoreErrorSkipsPush(t *testing.T) {
	repo := new(mockNotificationRepo)
	hub := new(mockBroadcaster)
	svc := NewNotificationService(repo, hub)

	repo.On("Create", mock.Anything, mock.Anything).Return(apperror.New(apperror.ErrCodeDatabaseError, "нет связи"))

	err := svc.Deliver(context.Background(), notification.TaskStarted(uuid.New(), notification.TaskRef{ID: uuid.New()}))
	assert.Error(t, err)
	hub.AssertNotCalled(t, "BroadcastToUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationService_Deliver_PushErrorIsNotFatal(t *testing.T) {
	repo := new(mockNotificationRepo)
	hub := new(mockBroadcaster)
	svc := NewNotificationService(repo, hub)

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)
	hub.On("BroadcastToUser", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("hub stopped"))

	assert.NoError(t, svc.Deliver(context.Background(), notification.TaskStarted(uuid.New(), notification.TaskRef{ID: uuid.New()})))
}

func TestNotificationService_MarkAsRead_Forbidden(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	id := uuid.New()

	repo.On("GetByID", mock.Anything, id).Return(&models.Notification{ID: id, UserID: uuid.New()}, nil)

	err := svc.MarkAsRead(context.Background(), id, uuid.New())
	assert.True(t, apperror.IsForbidden(err))
	repo.AssertNotCalled(t, "MarkAsRead", mock.Anything, mock.Anything, mock.Anything)
}

func TestNotificationService_MarkAsRead_Success(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	id, userID := uuid.New(), uuid.New()

	repo.On("GetByID", mock.Anything, id).Return(&models.Notification{ID: id, UserID: userID}, nil)
	repo.On("MarkAsRead", mock.Anything, id, userID).Return(nil)

	require.NoError(t, svc.MarkAsRead(context.Background(), id, userID))
	repo.AssertExpectations(t)
}

func TestNotificationService_ListNotifications_ClampsLimit(t *testing.T) {
	repo := new(mockNotificationRepo)
	svc := NewNotificationService(repo, nil)
	userID := uuid.New()

	repo.On("List", mock.Anything, userID, 20, 0, true).Return([]models.Notification{}, nil)

	list, err := svc.ListNotifications(context.Background(), userID, 500, -3, true)
	require.NoError(t, err)
	assert.Empty(t, list)
	repo.AssertExpectations(t)
}
