package escrow

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AuthorizeRequest struct {
	TaskID         uuid.UUID
	PayerID        uuid.UUID
	Amount         int64
	Currency       string
	IdempotencyKey string
	Description    string
}

type Authorization struct {
	Ref          string
	ClientSecret string
}

// Gateway - порт платежного шлюза. Авторизация выполняется с ручным списанием.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (Authorization, error)
	Capture(ctx context.Context, ref string) error
	Refund(ctx context.Context, ref string, amount int64, reason string) (string, error)
}

type EventType string

const (
	EventPaymentSucceeded EventType = "payment_succeeded"
	EventPaymentFailed    EventType = "payment_failed"
)

// GatewayEvent - входящее событие шлюза (webhook).
type GatewayEvent struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	Ref           string    `json:"ref"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

type EventOutcome string

const (
	OutcomeCaptured  EventOutcome = "captured"
	OutcomeFailed    EventOutcome = "failed"
	OutcomeIgnored   EventOutcome = "ignored"
	OutcomeDuplicate EventOutcome = "duplicate"
)

type Config struct {
	FeeBps         int64
	Currency       string
	GatewayTimeout time.Duration
}

func (c Config) timeout() time.Duration {
	if c.GatewayTimeout <= 0 {
		return 10 * time.Second
	}
	return c.GatewayTimeout
}
