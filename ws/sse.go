package ws

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
)

const (
	TransportSSE       = "sse"
	TransportWebSocket = "websocket"
)

func writeSSE(w io.Writer, data []byte) error {
	return sse.Encode(w, sse.Event{Data: data})
}

// HandleNotificationStream giữ một response SSE mở cho user đã xác thực
// (AuthMiddleware phải đặt "user_id" và "role" trước đó).
func (h *Hub) HandleNotificationStream(c *gin.Context) {
	userID := c.GetString("user_id")
	role := c.GetString("role")

	w := c.Writer
	header := w.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	if userID == "" {
		data, _ := Event{Type: EventError, Message: "Authentication required"}.encode()
		_ = writeSSE(w, data)
		w.Flush()
		return
	}

	client := h.Register(userID, role, TransportSSE)
	defer func() {
		h.Unregister(client)
		log.Printf("Client %d disconnected from notifications", client.ID)
	}()

	if data, err := (Event{Type: EventConnected, Message: "Connected to notifications"}).encode(); err == nil {
		if err := writeSSE(w, data); err != nil {
			return
		}
		w.Flush()
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-client.Send:
			if err := writeSSE(w, msg); err != nil {
				log.Printf("Error on client %d connection: %v", client.ID, err)
				return
			}
			w.Flush()
		case <-client.Done():
			// Gửi nốt "reconnected" (nếu có) trước khi đóng.
			for _, msg := range client.Drain() {
				if err := writeSSE(w, msg); err != nil {
					return
				}
			}
			w.Flush()
			return
		}
	}
}
