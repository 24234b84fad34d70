package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/infrastructure/gateway"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/taskmarket-backend/internal/logger"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/escrow"
)

const maxWebhookBody = 64 << 10

type EscrowHandler struct {
	holdUC    *escrow.CreateHoldUseCase
	captureUC *escrow.CaptureUseCase
	releaseUC *escrow.ReleaseUseCase
	refundUC  *escrow.RefundUseCase
	getUC     *escrow.GetTransactionUseCase
	webhookUC *escrow.HandleGatewayEventUseCase

	cfg           escrow.Config
	webhookSecret string
}

func NewEscrowHandler(
	holdUC *escrow.CreateHoldUseCase,
	captureUC *escrow.CaptureUseCase,
	releaseUC *escrow.ReleaseUseCase,
	refundUC *escrow.RefundUseCase,
	getUC *escrow.GetTransactionUseCase,
	webhookUC *escrow.HandleGatewayEventUseCase,
	cfg escrow.Config,
	webhookSecret string,
) *EscrowHandler {
	return &EscrowHandler{
		holdUC:        holdUC,
		captureUC:     captureUC,
		releaseUC:     releaseUC,
		refundUC:      refundUC,
		getUC:         getUC,
		webhookUC:     webhookUC,
		cfg:           cfg,
		webhookSecret: webhookSecret,
	}
}

// CreateHold POST /payments/hold
func (h *EscrowHandler) CreateHold(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req dto.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "некорректные данные запроса")
		return
	}

	result, err := h.holdUC.Execute(c.Request.Context(), escrow.CreateHoldInput{
		TaskID:   req.TaskID,
		PayerID:  actor.UserID,
		Amount:   valueobject.MinorFromMajor(req.Amount),
		Currency: req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.HoldResponse{
		Transaction:  dto.ToTransactionResponse(result.Transaction),
		ClientSecret: result.ClientSecret,
	})
}

// Capture POST /payments/:id/capture
func (h *EscrowHandler) Capture(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	transactionID, ok := uuidParam(c, "id", "некорректный ID транзакции")
	if !ok {
		return
	}

	tx, err := h.captureUC.ExecuteAs(c.Request.Context(), transactionID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTransactionResponse(tx))
}

// Release POST /payments/:id/release
func (h *EscrowHandler) Release(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	transactionID, ok := uuidParam(c, "id", "некорректный ID транзакции")
	if !ok {
		return
	}

	tx, err := h.releaseUC.Execute(c.Request.Context(), transactionID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTransactionResponse(tx))
}

// Refund POST /payments/:id/refund
func (h *EscrowHandler) Refund(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	transactionID, ok := uuidParam(c, "id", "некорректный ID транзакции")
	if !ok {
		return
	}

	var req dto.RefundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "некорректные данные запроса")
			return
		}
	}

	tx, err := h.refundUC.Execute(c.Request.Context(), escrow.RefundInput{
		TransactionID: transactionID,
		Amount:        req.AmountMinor(),
		Reason:        req.Reason,
	}, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTransactionResponse(tx))
}

// GetTransaction GET /payments/:id
func (h *EscrowHandler) GetTransaction(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	transactionID, ok := uuidParam(c, "id", "некорректный ID транзакции")
	if !ok {
		return
	}

	tx, err := h.getUC.Execute(c.Request.Context(), transactionID, actor)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTransactionResponse(tx))
}

// ListMine GET /payments/mine?status=held
func (h *EscrowHandler) ListMine(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	txs, err := h.getUC.Mine(c.Request.Context(), actor.UserID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto.ToTransactionResponses(txs))
}

// Config GET /payments/config
func (h *EscrowHandler) Config(c *gin.Context) {
	response.Success(c, dto.PaymentConfigResponse{
		PlatformFeePercent: valueobject.FeePercent(h.cfg.FeeBps),
		Currency:           valueobject.NormalizeCurrency(h.cfg.Currency),
	})
}

// Webhook POST /payments/webhook. Тело проверяется по HMAC подписи до разбора.
func (h *EscrowHandler) Webhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(c, "не удалось прочитать тело запроса")
		return
	}

	if err := gateway.VerifySignature(h.webhookSecret, body, c.GetHeader(gateway.SignatureHeader)); err != nil {
		logger.L().WithField("client_ip", c.ClientIP()).Warn("webhook signature rejected")
		response.Unauthorized(c, "неверная подпись")
		return
	}

	var event escrow.GatewayEvent
	if err := json.Unmarshal(body, &event); err != nil {
		response.BadRequest(c, "некорректное событие")
		return
	}

	outcome, err := h.webhookUC.Execute(c.Request.Context(), event)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "outcome": outcome})
}
