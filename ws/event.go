package ws

import (
	"encoding/json"
	"time"
)

const (
	EventConnected    = "connected"
	EventNotification = "notification"
	EventHeartbeat    = "heartbeat"
	EventReconnected  = "reconnected"
	EventError        = "error"
	EventUnreadCount  = "unread_count"
)

// Event là khung JSON chung cho SSE và WebSocket.
type Event struct {
	Type         string      `json:"type"`
	Message      string      `json:"message,omitempty"`
	Notification interface{} `json:"notification,omitempty"`
	UnreadCount  *int64      `json:"unreadCount,omitempty"`
	Timestamp    int64       `json:"timestamp,omitempty"`
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}

func HeartbeatEvent(now time.Time) Event {
	return Event{Type: EventHeartbeat, Timestamp: now.UnixMilli()}
}

func UnreadCountEvent(count int64) Event {
	return Event{Type: EventUnreadCount, UnreadCount: &count}
}
