package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
)

// Суммы в API передаются в основных единицах валюты (евро), внутри хранятся в центах.

type CreateHoldRequest struct {
	TaskID   uuid.UUID `json:"task_id" binding:"required"`
	Amount   float64   `json:"amount" binding:"required,gt=0"`
	Currency string    `json:"currency"`
}

type RefundRequest struct {
	Amount *float64 `json:"amount" binding:"omitempty,gt=0"`
	Reason string   `json:"reason"`
}

// AmountMinor возвращает 0 для полного возврата.
func (r RefundRequest) AmountMinor() int64 {
	if r.Amount == nil {
		return 0
	}
	return valueobject.MinorFromMajor(*r.Amount)
}

type TransactionResponse struct {
	ID             uuid.UUID  `json:"id"`
	TaskID         uuid.UUID  `json:"task_id"`
	PayerID        uuid.UUID  `json:"payer_id"`
	PayeeID        *uuid.UUID `json:"payee_id"`
	Amount         float64    `json:"amount"`
	PlatformFee    float64    `json:"platform_fee"`
	WorkerAmount   float64    `json:"worker_amount"`
	RefundedAmount float64    `json:"refunded_amount"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	FailureReason  *string    `json:"failure_reason"`
	HeldAt         *time.Time `json:"held_at"`
	ReleasedAt     *time.Time `json:"released_at"`
	RefundedAt     *time.Time `json:"refunded_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type HoldResponse struct {
	Transaction  TransactionResponse `json:"transaction"`
	ClientSecret string              `json:"client_secret"`
}

type PaymentConfigResponse struct {
	PlatformFeePercent float64 `json:"platform_fee_percent"`
	Currency           string  `json:"currency"`
}

func major(minor int64) float64 {
	return float64(minor) / 100
}

func ToTransactionResponse(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		TaskID:         t.TaskID,
		PayerID:        t.PayerID,
		PayeeID:        t.PayeeID,
		Amount:         major(t.Amount),
		PlatformFee:    major(t.PlatformFee),
		WorkerAmount:   major(t.WorkerAmount),
		RefundedAmount: major(t.RefundedAmount),
		Currency:       t.Currency,
		Status:         string(t.Status),
		FailureReason:  t.FailureReason,
		HeldAt:         t.HeldAt,
		ReleasedAt:     t.ReleasedAt,
		RefundedAt:     t.RefundedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func ToTransactionResponses(txs []*entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, ToTransactionResponse(t))
	}
	return out
}
