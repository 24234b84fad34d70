package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/taskmarket-backend/internal/usecase/escrow"
)

func TestHTTPGateway_Authorize(t *testing.T) {
	taskID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/authorizations", r.URL.Path)
		assert.Equal(t, "Bearer sk_test", r.Header.Get("Authorization"))
		assert.Equal(t, "task-"+taskID.String(), r.Header.Get("Idempotency-Key"))

		var body authorizeBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(2500), body.Amount)
		assert.Equal(t, "eur", body.Currency)
		assert.Equal(t, "manual", body.CaptureMethod)
		assert.Equal(t, taskID.String(), body.Metadata["task_id"])

		_ = json.NewEncoder(w).Encode(authorizeReply{ID: "auth_123", ClientSecret: "auth_123_secret"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(Options{BaseURL: srv.URL + "/", APIKey: "sk_test"})
	auth, err := gw.Authorize(context.Background(), escrow.AuthorizeRequest{
		TaskID: taskID, PayerID: uuid.New(), Amount: 2500, Currency: "EUR", IdempotencyKey: "task-" + taskID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "auth_123", auth.Ref)
	assert.Equal(t, "auth_123_secret", auth.ClientSecret)
}

func TestHTTPGateway_RefundAndCapture(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/authorizations/auth_1/capture":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{}`))
		case "/v1/authorizations/auth_1/refunds":
			var body refundBody
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, int64(700), body.Amount)
			_, _ = w.Write([]byte(`{"id":"re_9"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	gw := NewHTTPGateway(Options{BaseURL: srv.URL})
	require.NoError(t, gw.Capture(context.Background(), "auth_1"))

	ref, err := gw.Refund(context.Background(), "auth_1", 700, "dispute")
	require.NoError(t, err)
	assert.Equal(t, "re_9", ref)
}

func TestHTTPGateway_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"error":{"message":"card declined"}}`))
	}))
	defer srv.Close()

	gw := NewHTTPGateway(Options{BaseURL: srv.URL})
	_, err := gw.Authorize(context.Background(), escrow.AuthorizeRequest{Amount: 100, Currency: "EUR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card declined")
}

func TestHTTPGateway_RespectsContextWhileThrottled(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	gw := NewHTTPGateway(Options{BaseURL: srv.URL, RPS: 0.1})
	require.NoError(t, gw.Capture(context.Background(), "auth_1"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := gw.Capture(ctx, "auth_1")
	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestSignature(t *testing.T) {
	body := []byte(`{"id":"evt_1","type":"payment_succeeded","ref":"auth_1"}`)
	sig := Sign("whsec", body)

	assert.NoError(t, VerifySignature("whsec", body, sig))
	assert.NoError(t, VerifySignature("whsec", body, "sha256="+sig))
	assert.ErrorIs(t, VerifySignature("whsec", body, Sign("other", body)), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("whsec", body, "not-hex"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifySignature("whsec", append(body, ' '), sig), ErrInvalidSignature)
	// без секрета проверка отключена
	assert.NoError(t, VerifySignature("", body, ""))
}

func TestSandbox(t *testing.T) {
	sb := NewSandbox()
	var _ escrow.Gateway = sb

	auth, err := sb.Authorize(context.Background(), escrow.AuthorizeRequest{Amount: 1000})
	require.NoError(t, err)
	require.NoError(t, sb.Capture(context.Background(), auth.Ref))
	assert.True(t, sb.Captured(auth.Ref))

	_, err = sb.Refund(context.Background(), auth.Ref, 600, "")
	require.NoError(t, err)
	_, err = sb.Refund(context.Background(), auth.Ref, 600, "")
	assert.Error(t, err)

	assert.Error(t, sb.Capture(context.Background(), "unknown"))
}
