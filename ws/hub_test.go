package ws

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEvent(t *testing.T, data []byte) Event {
	t.Helper()
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestRegisterEvictsPreviousConnectionForSameUser(t *testing.T) {
	h := NewHub(time.Hour, 8)

	first := h.Register("user-1", "student", TransportSSE)
	second := h.Register("user-1", "student", TransportWebSocket)

	assert.True(t, isClosed(first.Done()), "old connection must be closed")
	assert.False(t, isClosed(second.Done()))

	pending := first.Drain()
	require.Len(t, pending, 1)
	assert.Equal(t, EventReconnected, decodeEvent(t, pending[0]).Type)

	stats := h.Stats()
	assert.Equal(t, 1, stats.Connections)
	assert.Equal(t, 1, stats.WebSocket)

	require.True(t, h.SendToUser("user-1", Event{Type: EventNotification, Message: "hi"}))
	assert.Empty(t, first.Drain())
	msgs := second.Drain()
	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", decodeEvent(t, msgs[0]).Message)
}

func TestUnregisterStaleClientKeepsCurrentConnection(t *testing.T) {
	h := NewHub(time.Hour, 8)

	first := h.Register("user-1", "company", TransportSSE)
	second := h.Register("user-1", "company", TransportSSE)

	h.Unregister(first)
	assert.True(t, h.IsOnline("user-1"))

	h.Unregister(second)
	h.Unregister(second)
	assert.False(t, h.IsOnline("user-1"))
}

func TestSendToUserOffline(t *testing.T) {
	h := NewHub(time.Hour, 8)
	assert.False(t, h.SendToUser("nobody", Event{Type: EventNotification}))
}

func TestSendToUserEvictsClientWithFullBuffer(t *testing.T) {
	h := NewHub(time.Hour, 1)
	c := h.Register("user-1", "student", TransportSSE)

	assert.True(t, h.SendToUser("user-1", Event{Type: EventNotification, Message: "1"}))
	assert.False(t, h.SendToUser("user-1", Event{Type: EventNotification, Message: "2"}))

	assert.False(t, h.IsOnline("user-1"))
	assert.True(t, isClosed(c.Done()))
}

func TestHeartbeatDropsDeadClients(t *testing.T) {
	h := NewHub(time.Hour, 1)
	healthy := h.Register("user-1", "student", TransportSSE)
	stuck := h.Register("user-2", "student", TransportSSE)
	require.True(t, h.SendToUser("user-2", Event{Type: EventNotification}))

	dropped := h.Heartbeat()

	assert.Equal(t, 1, dropped)
	assert.True(t, isClosed(stuck.Done()))
	assert.True(t, h.IsOnline("user-1"))

	msgs := healthy.Drain()
	require.Len(t, msgs, 1)
	ev := decodeEvent(t, msgs[0])
	assert.Equal(t, EventHeartbeat, ev.Type)
	assert.NotZero(t, ev.Timestamp)
}

func TestRunSendsHeartbeatsAndClosesOnCancel(t *testing.T) {
	h := NewHub(10*time.Millisecond, 8)
	c := h.Register("user-1", "admin", TransportSSE)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	select {
	case msg := <-c.Send:
		assert.Equal(t, EventHeartbeat, decodeEvent(t, msg).Type)
	case <-time.After(time.Second):
		t.Fatal("no heartbeat received")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	assert.True(t, isClosed(c.Done()))
	assert.Equal(t, 0, h.Stats().Connections)
}
