package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ignatzorin/taskmarket-backend/internal/auth"
	"github.com/ignatzorin/taskmarket-backend/internal/config"
	"github.com/ignatzorin/taskmarket-backend/internal/http/router"
	"github.com/ignatzorin/taskmarket-backend/internal/infrastructure/gateway"
	"github.com/ignatzorin/taskmarket-backend/internal/interface/http/handler"
	"github.com/ignatzorin/taskmarket-backend/internal/metrics"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/application"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/dispute"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/escrow"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/task"
	"github.com/ignatzorin/taskmarket-backend/internal/usecase/usecasetest"
)

const jwtSecret = "router-test-secret-router-test-secret"

type RouterSuite struct {
	suite.Suite
	engine  *gin.Engine
	creator uuid.UUID
	worker  uuid.UUID
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	store := usecasetest.NewStore()
	rec := &usecasetest.Recorder{}
	gw := gateway.NewSandbox()
	escrowCfg := escrow.Config{FeeBps: 1000, Currency: "EUR", GatewayTimeout: time.Second}

	reg := prometheus.NewRegistry()
	_ = metrics.Register(reg)

	cfg := &config.Config{
		Env:             "test",
		AllowedOrigins:  []string{"http://localhost:3000"},
		RateLimitLimit:  1000,
		RateLimitPeriod: time.Minute,
	}

	h := router.Handlers{
		Task: handler.NewTaskHandler(
			task.NewCreateTaskUseCase(store.Tasks()),
			task.NewGetTaskUseCase(store.Tasks()),
			task.NewStartTaskUseCase(store.Tasks(), store, rec),
			task.NewMarkDoneUseCase(store.Tasks(), store, rec),
			task.NewConfirmUseCase(store.Tasks(), store, rec),
			task.NewCancelUseCase(store.Tasks(), store, rec),
			task.NewDisputeTaskUseCase(store.Tasks(), store.Disputes(), store, rec),
		),
		Application: handler.NewApplicationHandler(
			application.NewApplyUseCase(store.Tasks(), store.Applications(), store, rec),
			application.NewWithdrawUseCase(store.Applications(), store),
			application.NewAcceptUseCase(store.Tasks(), store.Applications(), store, rec),
			application.NewRejectUseCase(store.Tasks(), store.Applications(), store, rec),
			application.NewListUseCase(store.Tasks(), store.Applications()),
		),
		Escrow: handler.NewEscrowHandler(
			escrow.NewCreateHoldUseCase(store.Tasks(), store.Transactions(), store, gw, escrowCfg),
			escrow.NewCaptureUseCase(store.Tasks(), store.Transactions(), store, gw, rec, escrowCfg),
			escrow.NewReleaseUseCase(store.Tasks(), store.Transactions(), store, rec),
			escrow.NewRefundUseCase(store.Transactions(), store, gw, rec, escrowCfg),
			escrow.NewGetTransactionUseCase(store.Transactions()),
			escrow.NewHandleGatewayEventUseCase(store.Tasks(), store.Transactions(), store.GatewayEvents(), store, gw, rec, escrowCfg),
			escrowCfg,
			"whsec",
		),
		Dispute: handler.NewDisputeHandler(
			dispute.NewFileDisputeUseCase(store.Tasks(), store.Disputes(), store, rec),
			dispute.NewRespondUseCase(store.Tasks(), store.Disputes(), store, rec),
			dispute.NewResolveUseCase(store.Tasks(), store.Disputes(), store.Reviews(), store.Applications(), store, rec),
			dispute.NewQueryUseCase(store.Tasks(), store.Disputes()),
			"support@example.com",
		),
	}

	s.engine = router.SetupRouter(cfg, h, router.Deps{
		Tokens:   auth.NewTokenVerifier(jwtSecret),
		Gatherer: reg,
	})
	s.creator = uuid.New()
	s.worker = uuid.New()
}

func token(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  userID.String(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return signed
}

// call выполняет запрос и возвращает код и поле data ответа.
func (s *RouterSuite) call(method, path string, userID uuid.UUID, body any) (int, json.RawMessage) {
	var payload []byte
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		payload = raw
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("Authorization", "Bearer "+token(s.T(), userID, "user"))
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env.Data
}

func (s *RouterSuite) decode(raw json.RawMessage, out any) {
	s.Require().NoError(json.Unmarshal(raw, out))
}

type idStatus struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

func (s *RouterSuite) TestFullLifecycle() {
	code, data := s.call(http.MethodPost, "/api/tasks", s.creator, map[string]any{
		"title":       "Покрасить забор",
		"description": "Забор на даче, около 20 метров",
		"budget":      120,
	})
	s.Require().Equal(http.StatusCreated, code)
	var tk idStatus
	s.decode(data, &tk)
	taskPath := "/api/tasks/" + tk.ID.String()

	code, data = s.call(http.MethodPost, taskPath+"/applications", s.worker, map[string]any{"message": "Сделаю за выходные"})
	s.Require().Equal(http.StatusCreated, code)
	var app idStatus
	s.decode(data, &app)
	s.Equal("pending", app.Status)

	code, _ = s.call(http.MethodPost, taskPath+"/applications/"+app.ID.String()+"/accept", s.worker, nil)
	s.Equal(http.StatusForbidden, code)

	code, data = s.call(http.MethodPost, taskPath+"/applications/"+app.ID.String()+"/accept", s.creator, nil)
	s.Require().Equal(http.StatusOK, code)
	var accepted struct {
		Task idStatus `json:"task"`
	}
	s.decode(data, &accepted)
	s.Equal("assigned", accepted.Task.Status)

	code, data = s.call(http.MethodPost, "/api/payments/hold", s.creator, map[string]any{"task_id": tk.ID, "amount": 120})
	s.Require().Equal(http.StatusCreated, code)
	var hold struct {
		Transaction idStatus `json:"transaction"`
	}
	s.decode(data, &hold)
	payPath := "/api/payments/" + hold.Transaction.ID.String()

	code, data = s.call(http.MethodPost, payPath+"/capture", s.creator, nil)
	s.Require().Equal(http.StatusOK, code)
	var captured idStatus
	s.decode(data, &captured)
	s.Equal("held", captured.Status)

	for _, step := range []struct {
		path   string
		actor  uuid.UUID
		status string
	}{
		{"/start", s.worker, "in_progress"},
		{"/done", s.worker, "pending_confirmation"},
		{"/confirm", s.creator, "completed"},
	} {
		code, data = s.call(http.MethodPost, taskPath+step.path, step.actor, nil)
		s.Require().Equal(http.StatusOK, code, step.path)
		var got idStatus
		s.decode(data, &got)
		s.Equal(step.status, got.Status, step.path)
	}

	code, data = s.call(http.MethodPost, payPath+"/release", s.creator, nil)
	s.Require().Equal(http.StatusOK, code)
	var released struct {
		Status       string     `json:"status"`
		PayeeID      *uuid.UUID `json:"payee_id"`
		WorkerAmount float64    `json:"worker_amount"`
	}
	s.decode(data, &released)
	s.Equal("released", released.Status)
	s.Require().NotNil(released.PayeeID)
	s.Equal(s.worker, *released.PayeeID)
	s.Equal(108.0, released.WorkerAmount)

	code, data = s.call(http.MethodGet, "/api/payments/mine?status=released", s.worker, nil)
	s.Require().Equal(http.StatusOK, code)
	var mine []idStatus
	s.decode(data, &mine)
	s.Len(mine, 1)

	code, data = s.call(http.MethodGet, "/api/tasks/mine", s.worker, nil)
	s.Require().Equal(http.StatusOK, code)
	var tasks []idStatus
	s.decode(data, &tasks)
	s.Require().Len(tasks, 1)
	s.Equal(tk.ID, tasks[0].ID)
}

func (s *RouterSuite) TestAuthRequired() {
	code, _ := s.call(http.MethodGet, "/api/tasks/mine", uuid.Nil, nil)
	s.Equal(http.StatusUnauthorized, code)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks/mine", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *RouterSuite) TestUUIDValidation() {
	code, _ := s.call(http.MethodGet, "/api/tasks/42", s.creator, nil)
	s.Equal(http.StatusBadRequest, code)
}

func (s *RouterSuite) TestPublicRoutes() {
	code, _ := s.call(http.MethodGet, "/api/payments/config", uuid.Nil, nil)
	s.Equal(http.StatusOK, code)

	code, _ = s.call(http.MethodGet, "/api/disputes/reasons", uuid.Nil, nil)
	s.Equal(http.StatusOK, code)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader([]byte(`{"id":"evt"}`)))
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.NotEmpty(w.Header().Get("X-RateLimit-Limit"))
}

func (s *RouterSuite) TestMetricsEndpoint() {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *RouterSuite) TestCORSPreflight() {
	req := httptest.NewRequest(http.MethodOptions, "/api/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	s.Equal(http.StatusNoContent, w.Code)
	s.Equal("http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{RateLimitLimit: 1, RateLimitPeriod: time.Minute}
	store := usecasetest.NewStore()
	h := router.Handlers{
		Escrow: handler.NewEscrowHandler(nil, nil, nil, nil, nil,
			escrow.NewHandleGatewayEventUseCase(store.Tasks(), store.Transactions(), store.GatewayEvents(), store, gateway.NewSandbox(), &usecasetest.Recorder{}, escrow.Config{}),
			escrow.Config{}, ""),
		Dispute:     handler.NewDisputeHandler(nil, nil, nil, nil, ""),
		Task:        &handler.TaskHandler{},
		Application: &handler.ApplicationHandler{},
	}
	r := router.SetupRouter(cfg, h, router.Deps{Tokens: auth.NewTokenVerifier(jwtSecret)})

	codes := make([]int, 0, 7)
	for i := 0; i < 7; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", bytes.NewReader([]byte(`{"id":"evt_rl","type":"other"}`)))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[6])
}
