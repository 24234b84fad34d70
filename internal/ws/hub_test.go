package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(ctx)
	go hub.Run()
	return hub
}

func TestHub_BroadcastReachesOnlyRecipient(t *testing.T) {
	hub := startHub(t)
	alice, bob := uuid.New(), uuid.New()

	a := &Client{hub: hub, userID: alice, send: make(chan []byte, 1)}
	b := &Client{hub: hub, userID: bob, send: make(chan []byte, 1)}
	hub.Register(a)
	hub.Register(b)

	require.NoError(t, hub.BroadcastToUser(alice, "notification", map[string]string{"title": "Новая заявка"}))

	select {
	case raw := <-a.send:
		var msg struct {
			Type string            `json:"type"`
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "notification", msg.Type)
		assert.Equal(t, "Новая заявка", msg.Data["title"])
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}

	select {
	case <-b.send:
		t.Fatal("message delivered to another user")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := startHub(t)
	c := &Client{hub: hub, userID: uuid.New(), send: make(chan []byte, 1)}
	hub.Register(c)
	require.Eventually(t, func() bool { return hub.Connected(c.userID) == 1 }, time.Second, 10*time.Millisecond)

	hub.Unregister(c)

	require.Eventually(t, func() bool { return hub.Connected(c.userID) == 0 }, time.Second, 10*time.Millisecond)
	_, open := <-c.send
	assert.False(t, open)
}

func TestClient_ReceivesOverWebsocket(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(conn, hub, userID).Run(context.Background())
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Connected(userID) == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.BroadcastToUser(userID, "notification", map[string]int{"unread": 3}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"notification","data":{"unread":3}}`, string(raw))
}
