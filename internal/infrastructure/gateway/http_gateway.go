package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/escrow"
)

// HTTPGateway - клиент REST API платежного шлюза с ручным списанием.
type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Options struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RPS ограничивает исходящие запросы; 0 отключает ограничение.
	RPS float64
}

func NewHTTPGateway(opts Options) *HTTPGateway {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return &HTTPGateway{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		apiKey:     opts.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

type authorizeBody struct {
	Amount        int64             `json:"amount"`
	Currency      string            `json:"currency"`
	CaptureMethod string            `json:"capture_method"`
	Description   string            `json:"description,omitempty"`
	Metadata      map[string]string `json:"metadata"`
}

type authorizeReply struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
}

type refundBody struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

type refundReply struct {
	ID string `json:"id"`
}

type errorReply struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (g *HTTPGateway) Authorize(ctx context.Context, req escrow.AuthorizeRequest) (escrow.Authorization, error) {
	defer metrics.ObserveGateway("authorize", time.Now())

	body := authorizeBody{
		Amount:        req.Amount,
		Currency:      strings.ToLower(req.Currency),
		CaptureMethod: "manual",
		Description:   req.Description,
		Metadata: map[string]string{
			"task_id":  req.TaskID.String(),
			"payer_id": req.PayerID.String(),
		},
	}
	var reply authorizeReply
	if err := g.do(ctx, "/v1/authorizations", req.IdempotencyKey, body, &reply); err != nil {
		return escrow.Authorization{}, err
	}
	if reply.ID == "" {
		return escrow.Authorization{}, fmt.Errorf("gateway: пустой идентификатор авторизации")
	}
	return escrow.Authorization{Ref: reply.ID, ClientSecret: reply.ClientSecret}, nil
}

func (g *HTTPGateway) Capture(ctx context.Context, ref string) error {
	defer metrics.ObserveGateway("capture", time.Now())
	return g.do(ctx, "/v1/authorizations/"+ref+"/capture", "capture-"+ref, struct{}{}, nil)
}

func (g *HTTPGateway) Refund(ctx context.Context, ref string, amount int64, reason string) (string, error) {
	defer metrics.ObserveGateway("refund", time.Now())

	var reply refundReply
	key := fmt.Sprintf("refund-%s-%d", ref, amount)
	if err := g.do(ctx, "/v1/authorizations/"+ref+"/refunds", key, refundBody{Amount: amount, Reason: reason}, &reply); err != nil {
		return "", err
	}
	return reply.ID, nil
}

func (g *HTTPGateway) do(ctx context.Context, path, idempotencyKey string, payload, out any) error {
	if g.baseURL == "" {
		return fmt.Errorf("gateway: baseURL не задан")
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("gateway: ожидание лимита: %w", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("gateway: не удалось сериализовать запрос: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("gateway: не удалось создать запрос: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: запрос не выполнен: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("gateway: не удалось прочитать ответ: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorReply
		if json.Unmarshal(data, &e) == nil && e.Error.Message != "" {
			return fmt.Errorf("gateway: %s (status %d)", e.Error.Message, resp.StatusCode)
		}
		return fmt.Errorf("gateway: неожиданный статус %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("gateway: не удалось разобрать ответ: %w", err)
	}
	return nil
}
