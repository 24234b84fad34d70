package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "taskmarket"

var (
	TaskTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "task_transitions_total",
		Help:      "Переходы задач по целевому статусу.",
	}, []string{"status"})

	EscrowOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "escrow_operations_total",
		Help:      "Операции эскроу по типу и результату.",
	}, []string{"operation", "outcome"})

	DisputeResolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dispute_resolutions_total",
		Help:      "Решенные споры по типу решения.",
	}, []string{"resolution"})

	Notifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Доставка уведомлений по типу и результату.",
	}, []string{"type", "outcome"})

	GatewayLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_request_duration_seconds",
		Help:      "Длительность запросов к платежному шлюзу.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
)

// Register регистрирует коллекторы. Вызывается один раз из main.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{TaskTransitions, EscrowOperations, DisputeResolutions, Notifications, GatewayLatency} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func ObserveGateway(operation string, started time.Time) {
	GatewayLatency.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
