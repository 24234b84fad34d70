package usecasetest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/notification"
)

// Recorder запоминает отправленные уведомления.
type Recorder struct {
	mu   sync.Mutex
	sent []notification.Notification
}

func (r *Recorder) Notify(ctx context.Context, n notification.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *Recorder) All() []notification.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notification.Notification(nil), r.sent...)
}

func (r *Recorder) Types() []notification.Type {
	var out []notification.Type
	for _, n := range r.All() {
		out = append(out, n.Type)
	}
	return out
}

// For возвращает типы уведомлений, отправленных пользователю.
func (r *Recorder) For(userID uuid.UUID) []notification.Type {
	var out []notification.Type
	for _, n := range r.All() {
		if n.UserID == userID {
			out = append(out, n.Type)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// FailingSink всегда возвращает ошибку доставки.
type FailingSink struct {
	Err error
}

func (s FailingSink) Deliver(context.Context, notification.Notification) error {
	return s.Err
}
