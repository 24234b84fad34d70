package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

// Transaction - эскроу-платеж по задаче. Суммы в минимальных единицах валюты
// и после создания не меняются: Amount = PlatformFee + WorkerAmount.
type Transaction struct {
	ID               uuid.UUID
	TaskID           uuid.UUID
	PayerID          uuid.UUID
	PayeeID          *uuid.UUID
	Amount           int64
	PlatformFee      int64
	WorkerAmount     int64
	Currency         string
	Status           valueobject.TransactionStatus
	GatewayRef       string
	GatewayRefundRef *string
	RefundedAmount   int64
	FailureReason    *string
	HeldAt           *time.Time
	ReleasedAt       *time.Time
	RefundedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewTransaction(taskID, payerID uuid.UUID, amount valueobject.Money, feeBps int64, gatewayRef string) (*Transaction, error) {
	if amount.Amount <= 0 {
		return nil, apperror.New(apperror.ErrCodeInvalidAmount, "сумма должна быть положительной")
	}
	if strings.TrimSpace(gatewayRef) == "" {
		return nil, apperror.New(apperror.ErrCodeGateway, "платежный шлюз не вернул идентификатор авторизации")
	}
	fee, worker := valueobject.FeeSplit(amount.Amount, feeBps)
	now := time.Now()
	return &Transaction{
		ID:           uuid.New(),
		TaskID:       taskID,
		PayerID:      payerID,
		Amount:       amount.Amount,
		PlatformFee:  fee,
		WorkerAmount: worker,
		Currency:     valueobject.NormalizeCurrency(amount.Currency),
		Status:       valueobject.TransactionStatusPending,
		GatewayRef:   gatewayRef,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (t *Transaction) IsBalanced() bool {
	return t.Amount == t.PlatformFee+t.WorkerAmount && t.PlatformFee >= 0 && t.WorkerAmount >= 0
}

func (t *Transaction) IsActive() bool {
	return t.Status.IsActive()
}

func (t *Transaction) MarkHeld() error {
	if t.Status != valueobject.TransactionStatusPending {
		return apperror.New(apperror.ErrCodeInvalidState, "удержать можно только ожидающий платеж")
	}
	now := time.Now()
	t.Status = valueobject.TransactionStatusHeld
	t.HeldAt = &now
	t.UpdatedAt = now
	return nil
}

func (t *Transaction) Release(payeeID uuid.UUID) error {
	if t.Status != valueobject.TransactionStatusHeld {
		return apperror.New(apperror.ErrCodeInvalidState, "выплатить можно только удержанный платеж")
	}
	if t.PayeeID == nil {
		t.PayeeID = &payeeID
	}
	now := time.Now()
	t.Status = valueobject.TransactionStatusReleased
	t.ReleasedAt = &now
	t.UpdatedAt = now
	return nil
}

// ValidateRefund проверяет сумму возврата; 0 означает полный возврат.
func (t *Transaction) ValidateRefund(amount int64) (int64, error) {
	if !t.IsActive() {
		return 0, apperror.New(apperror.ErrCodeInvalidState, "вернуть можно только ожидающий или удержанный платеж")
	}
	if amount == 0 {
		return t.Amount, nil
	}
	if amount < 0 || amount > t.Amount {
		return 0, apperror.New(apperror.ErrCodeInvalidAmount, "сумма возврата должна быть больше нуля и не больше суммы платежа")
	}
	return amount, nil
}

func (t *Transaction) Refund(amount int64, refundRef string) error {
	amount, err := t.ValidateRefund(amount)
	if err != nil {
		return err
	}
	now := time.Now()
	t.RefundedAmount = amount
	if amount == t.Amount {
		t.Status = valueobject.TransactionStatusRefunded
	} else {
		t.Status = valueobject.TransactionStatusPartiallyRefunded
	}
	if refundRef != "" {
		t.GatewayRefundRef = &refundRef
	}
	t.RefundedAt = &now
	t.UpdatedAt = now
	return nil
}

func (t *Transaction) Fail(reason string) error {
	if t.Status != valueobject.TransactionStatusPending {
		return apperror.New(apperror.ErrCodeInvalidState, "ошибку можно зафиксировать только для ожидающего платежа")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "payment failed"
	}
	t.Status = valueobject.TransactionStatusFailed
	t.FailureReason = &reason
	t.UpdatedAt = time.Now()
	return nil
}

func (t *Transaction) IsPaidBy(userID uuid.UUID) bool {
	return t.PayerID == userID
}

func (t *Transaction) Involves(userID uuid.UUID) bool {
	return t.PayerID == userID || (t.PayeeID != nil && *t.PayeeID == userID)
}
