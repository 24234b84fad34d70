package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/taskmarket-backend/internal/goroutine"
	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
)

const defaultDeliveryTimeout = 5 * time.Second

// Dispatcher вызывается после коммита. Каждое уведомление доставляется отдельным вызовом;
// ошибки и panic логируются и не возвращаются вызывающему.
type Dispatcher struct {
	sink    Sink
	timeout time.Duration
}

func NewDispatcher(sink Sink) *Dispatcher {
	return &Dispatcher{sink: sink, timeout: defaultDeliveryTimeout}
}

func (d *Dispatcher) Notify(ctx context.Context, n Notification) {
	if d == nil || d.sink == nil || n.UserID == uuid.Nil {
		return
	}

	// отмена HTTP-запроса не должна обрывать доставку
	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	defer cancel()

	err := goroutine.Run(func() error {
		return d.sink.Deliver(deliverCtx, n)
	})
	metrics.Notifications.WithLabelValues(string(n.Type), metrics.Outcome(err)).Inc()
	if err != nil {
		logger.L().WithFields(logrus.Fields{
			"user_id":      n.UserID,
			"event":        n.Type,
			"related_type": n.RelatedType,
			"related_id":   n.RelatedID,
		}).WithError(err).Warn("notification delivery failed")
	}
}

// Nop ничего не отправляет.
type Nop struct{}

func (Nop) Notify(context.Context, Notification) {}
