package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/taskmarket-backend/internal/infrastructure/gateway"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/handler"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/dispute"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/escrow"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/task"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/usecasetest"
)

const webhookSecret = "whsec_test"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type fixture struct {
	store    *usecasetest.Store
	notifier *usecasetest.Recorder
	sandbox  *gateway.Sandbox
	tasks    *handler.TaskHandler
	escrow   *handler.EscrowHandler
	disputes *handler.DisputeHandler
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)
	store := usecasetest.NewStore()
	rec := &usecasetest.Recorder{}
	sandbox := gateway.NewSandbox()
	cfg := escrow.Config{FeeBps: 1000, Currency: "EUR", GatewayTimeout: time.Second}

	return &fixture{
		store:    store,
		notifier: rec,
		sandbox:  sandbox,
		tasks: handler.NewTaskHandler(
			task.NewCreateTaskUseCase(store.Tasks()),
			task.NewGetTaskUseCase(store.Tasks()),
			task.NewStartTaskUseCase(store.Tasks(), store, rec),
			task.NewMarkDoneUseCase(store.Tasks(), store, rec),
			task.NewConfirmUseCase(store.Tasks(), store, rec),
			task.NewCancelUseCase(store.Tasks(), store, rec),
			task.NewDisputeTaskUseCase(store.Tasks(), store.Disputes(), store, rec),
		),
		escrow: handler.NewEscrowHandler(
			escrow.NewCreateHoldUseCase(store.Tasks(), store.Transactions(), store, sandbox, cfg),
			escrow.NewCaptureUseCase(store.Tasks(), store.Transactions(), store, sandbox, rec, cfg),
			escrow.NewReleaseUseCase(store.Tasks(), store.Transactions(), store, rec),
			escrow.NewRefundUseCase(store.Transactions(), store, sandbox, rec, cfg),
			escrow.NewGetTransactionUseCase(store.Transactions()),
			escrow.NewHandleGatewayEventUseCase(store.Tasks(), store.Transactions(), store.GatewayEvents(), store, sandbox, rec, cfg),
			cfg,
			webhookSecret,
		),
		disputes: handler.NewDisputeHandler(
			dispute.NewFileDisputeUseCase(store.Tasks(), store.Disputes(), store, rec),
			dispute.NewRespondUseCase(store.Tasks(), store.Disputes(), store, rec),
			dispute.NewResolveUseCase(store.Tasks(), store.Disputes(), store.Reviews(), store.Applications(), store, rec),
			dispute.NewQueryUseCase(store.Tasks(), store.Disputes()),
			"support@example.com",
		),
	}
}

// as монтирует обработчик с заранее установленным участником.
func as(actor *auth.Actor, method, path string, h gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Handle(method, path, func(c *gin.Context) {
		if actor != nil {
			middleware.SetActor(c, *actor)
		}
		c.Next()
	}, h)
	return r
}

func do(t *testing.T, r http.Handler, method, target string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestTaskHandler_CreateTask(t *testing.T) {
	f := newFixture()
	creator := auth.NewActor(uuid.New(), "user")

	t.Run("без авторизации", func(t *testing.T) {
		w, _ := do(t, as(nil, http.MethodPost, "/tasks", f.tasks.CreateTask), http.MethodPost, "/tasks", map[string]any{"title": "x"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("без заголовка", func(t *testing.T) {
		w, env := do(t, as(&creator, http.MethodPost, "/tasks", f.tasks.CreateTask), http.MethodPost, "/tasks", map[string]any{"budget": 10})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
	})

	t.Run("бюджет в основных единицах", func(t *testing.T) {
		w, env := do(t, as(&creator, http.MethodPost, "/tasks", f.tasks.CreateTask), http.MethodPost, "/tasks", map[string]any{
			"title":       "Собрать шкаф",
			"description": "Собрать шкаф из IKEA по инструкции",
			"budget":      49.99,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var got struct {
			ID       uuid.UUID `json:"id"`
			Status   string    `json:"status"`
			Budget   float64   `json:"budget"`
			Currency string    `json:"currency"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, "open", got.Status)
		assert.InDelta(t, 49.99, got.Budget, 0.001)
		assert.Equal(t, "EUR", got.Currency)

		stored := f.store.MustTask(t, got.ID)
		require.NotNil(t, stored.Budget)
		assert.Equal(t, int64(4999), stored.Budget.Amount)
	})
}

func TestTaskHandler_InvalidID(t *testing.T) {
	f := newFixture()
	actor := auth.NewActor(uuid.New(), "user")
	r := as(&actor, http.MethodPost, "/tasks/:id/start", f.tasks.StartTask)

	w, _ := do(t, r, http.MethodPost, "/tasks/not-a-uuid/start", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTaskHandler_TransitionErrorsMapToStatus(t *testing.T) {
	f := newFixture()
	creator, worker := uuid.New(), uuid.New()
	tk := f.store.SeedTaskInStatus(t, creator, worker, valueobject.TaskStatusAssigned)

	creatorActor := auth.NewActor(creator, "user")
	w, env := do(t, as(&creatorActor, http.MethodPost, "/tasks/:id/start", f.tasks.StartTask), http.MethodPost, "/tasks/"+tk.ID.String()+"/start", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	workerActor := auth.NewActor(worker, "user")
	w, env = do(t, as(&workerActor, http.MethodPost, "/tasks/:id/done", f.tasks.MarkDone), http.MethodPost, "/tasks/"+tk.ID.String()+"/done", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)

	w, _ = do(t, as(&workerActor, http.MethodPost, "/tasks/:id/start", f.tasks.StartTask), http.MethodPost, "/tasks/"+uuid.NewString()+"/start", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEscrowHandler_Config(t *testing.T) {
	f := newFixture()
	w, env := do(t, as(nil, http.MethodGet, "/payments/config", f.escrow.Config), http.MethodGet, "/payments/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		PlatformFeePercent float64 `json:"platform_fee_percent"`
		Currency           string  `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, 10.0, got.PlatformFeePercent)
	assert.Equal(t, "EUR", got.Currency)
}

func TestEscrowHandler_HoldAndRefund(t *testing.T) {
	f := newFixture()
	creator := auth.NewActor(uuid.New(), "user")
	tk := f.store.SeedTask(t, creator.UserID)

	w, env := do(t, as(&creator, http.MethodPost, "/payments/hold", f.escrow.CreateHold), http.MethodPost, "/payments/hold", map[string]any{
		"task_id": tk.ID,
		"amount":  100,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var hold struct {
		Transaction struct {
			ID           uuid.UUID `json:"id"`
			Amount       float64   `json:"amount"`
			PlatformFee  float64   `json:"platform_fee"`
			WorkerAmount float64   `json:"worker_amount"`
			Status       string    `json:"status"`
		} `json:"transaction"`
		ClientSecret string `json:"client_secret"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &hold))
	assert.Equal(t, 100.0, hold.Transaction.Amount)
	assert.Equal(t, 10.0, hold.Transaction.PlatformFee)
	assert.Equal(t, 90.0, hold.Transaction.WorkerAmount)
	assert.Equal(t, "pending", hold.Transaction.Status)
	assert.NotEmpty(t, hold.ClientSecret)

	txPath := "/payments/" + hold.Transaction.ID.String()
	w, _ = do(t, as(&creator, http.MethodPost, "/payments/:id/capture", f.escrow.Capture), http.MethodPost, txPath+"/capture", nil)
	require.Equal(t, http.StatusOK, w.Code)

	refundBody := map[string]any{
		"amount": 25.5,
		"reason": "часть работы не выполнена",
	}
	w, _ = do(t, as(&creator, http.MethodPost, "/payments/:id/refund", f.escrow.Refund), http.MethodPost, txPath+"/refund", refundBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := auth.NewActor(uuid.New(), auth.RoleAdmin)
	w, env = do(t, as(&admin, http.MethodPost, "/payments/:id/refund", f.escrow.Refund), http.MethodPost, txPath+"/refund", refundBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.sandbox.Captured(gatewayRef(t, f, hold.Transaction.ID)))

	var refunded struct {
		Status         string  `json:"status"`
		RefundedAmount float64 `json:"refunded_amount"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &refunded))
	assert.Equal(t, "partially_refunded", refunded.Status)
	assert.Equal(t, 25.5, refunded.RefundedAmount)

	stranger := auth.NewActor(uuid.New(), "user")
	w, _ = do(t, as(&stranger, http.MethodGet, "/payments/:id", f.escrow.GetTransaction), http.MethodGet, txPath, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func gatewayRef(t *testing.T, f *fixture, id uuid.UUID) string {
	t.Helper()
	tx, err := f.store.Transactions().FindByID(context.Background(), id)
	require.NoError(t, err)
	return tx.GatewayRef
}

func TestEscrowHandler_Webhook(t *testing.T) {
	f := newFixture()
	creator := auth.NewActor(uuid.New(), "user")
	tk := f.store.SeedTask(t, creator.UserID)

	_, env := do(t, as(&creator, http.MethodPost, "/payments/hold", f.escrow.CreateHold), http.MethodPost, "/payments/hold", map[string]any{
		"task_id": tk.ID,
		"amount":  20,
	})
	var hold struct {
		Transaction struct {
			ID uuid.UUID `json:"id"`
		} `json:"transaction"`
		ClientSecret string `json:"client_secret"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &hold))
	ref := gatewayRef(t, f, hold.Transaction.ID)
	body, err := json.Marshal(escrow.GatewayEvent{ID: "evt_1", Type: escrow.EventPaymentSucceeded, Ref: ref})
	require.NoError(t, err)

	r := gin.New()
	r.POST("/payments/webhook", f.escrow.Webhook)
	send := func(signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/payments/webhook", bytes.NewReader(body))
		if signature != "" {
			req.Header.Set(gateway.SignatureHeader, signature)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, send("").Code)
	assert.Equal(t, http.StatusUnauthorized, send("sha256=deadbeef").Code)

	w := send("sha256=" + gateway.Sign(webhookSecret, body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"captured"`)

	w = send(gateway.Sign(webhookSecret, body))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"duplicate"`)

	held, err := f.store.Transactions().FindByID(context.Background(), hold.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.TransactionStatusHeld, held.Status)
	assert.True(t, f.sandbox.Captured(ref))
}

func TestDisputeHandler_Reasons(t *testing.T) {
	f := newFixture()
	w, env := do(t, as(nil, http.MethodGet, "/disputes/reasons", f.disputes.Reasons), http.MethodGet, "/disputes/reasons", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Reasons []struct {
			Value string `json:"value"`
			Label string `json:"label"`
		} `json:"reasons"`
		SupportEmail string `json:"support_email"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "support@example.com", got.SupportEmail)
	assert.Len(t, got.Reasons, len(valueobject.DisputeReasons()))
}

func TestDisputeHandler_FileAndResolve(t *testing.T) {
	f := newFixture()
	creator, worker := uuid.New(), uuid.New()
	tk := f.store.SeedTaskInStatus(t, creator, worker, valueobject.TaskStatusInProgress)

	workerActor := auth.NewActor(worker, "user")
	w, env := do(t, as(&workerActor, http.MethodPost, "/disputes", f.disputes.File), http.MethodPost, "/disputes", map[string]any{
		"task_id":     tk.ID,
		"reason":      "communication",
		"description": "заказчик не выходит на связь",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var filed struct {
		ID             uuid.UUID `json:"id"`
		FiledAgainstID uuid.UUID `json:"filed_against_id"`
		EvidenceURLs   []string  `json:"evidence_urls"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &filed))
	assert.Equal(t, creator, filed.FiledAgainstID)
	assert.NotNil(t, filed.EvidenceURLs)

	path := "/disputes/" + filed.ID.String() + "/resolve"
	user := auth.NewActor(creator, "user")
	w, _ = do(t, as(&user, http.MethodPost, "/disputes/:id/resolve", f.disputes.Resolve), http.MethodPost, path, map[string]any{"resolution": "refund"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	admin := auth.NewActor(uuid.New(), auth.RoleAdmin)
	w, env = do(t, as(&admin, http.MethodPost, "/disputes/:id/resolve", f.disputes.Resolve), http.MethodPost, path, map[string]any{"resolution": "refund", "notes": "работа не начата"})
	require.Equal(t, http.StatusOK, w.Code)

	var resolved struct {
		Dispute struct {
			Status string `json:"status"`
		} `json:"dispute"`
		Task struct {
			Status string `json:"status"`
		} `json:"task"`
		Penalty *struct {
			Rating     int       `json:"rating"`
			ReviewedID uuid.UUID `json:"reviewed_id"`
		} `json:"penalty"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resolved))
	assert.Equal(t, "resolved", resolved.Dispute.Status)
	assert.Equal(t, "cancelled", resolved.Task.Status)
	require.NotNil(t, resolved.Penalty)
	assert.Equal(t, 1, resolved.Penalty.Rating)
	assert.Equal(t, worker, resolved.Penalty.ReviewedID)

	w, env = do(t, as(&admin, http.MethodGet, "/admin/disputes", f.disputes.ListAll), http.MethodGet, "/admin/disputes?status=resolved", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
}
