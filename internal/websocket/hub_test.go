package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat-be/internal/model"
)

type quietLogger struct{}

func (quietLogger) Debug(module, message string, details map[string]interface{}) {}
func (quietLogger) Info(module, message string, details map[string]interface{})  {}
func (quietLogger) Warn(module, message string, details map[string]interface{})  {}
func (quietLogger) Error(module, message string, details map[string]interface{}) {}
func (quietLogger) Sync() error                                                  { return nil }

func TestHubDeliversToRegisteredClient(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	userId := uuid.New()
	client := &Client{Hub: h, UserID: userId, Send: make(chan []byte, 8)}
	h.register <- client

	h.Send(userId, model.Notification{Id: uuid.New(), Title: "hello"})

	select {
	case data := <-client.Send:
		assert.Contains(t, string(data), `"type":"notification"`)
	case <-time.After(time.Second):
		t.Fatal("no message delivered")
	}
}

func TestHubDropsClientWithFullBuffer(t *testing.T) {
	h := NewHub(nil, quietLogger{})
	go h.Run()

	userId := uuid.New()
	client := &Client{Hub: h, UserID: userId, Send: make(chan []byte, 1)}
	h.register <- client
	client.Send <- []byte("backlog")

	// The full buffer drops the connection, only the unregister handler
	// may close the channel.
	h.Send(userId, model.Notification{Id: uuid.New()})

	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		_, ok := h.clients[userId]
		return !ok
	}, time.Second, 10*time.Millisecond, "slow client was not unregistered")

	// A later delivery for the same user must be a no-op, not a panic in
	// the hub goroutine.
	h.Send(userId, model.Notification{Id: uuid.New()})

	<-client.Send
	_, open := <-client.Send
	assert.False(t, open, "send channel should be closed exactly once")
}
