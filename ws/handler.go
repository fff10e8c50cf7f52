package ws

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vnkhanh/internship-platform-backend/utils"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMsgSize = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // chỉ để phát triển, nên giới hạn ở production
	},
}

// HandleUserWebSocket là transport thay thế cho SSE, dùng chung registry.
// Trình duyệt không gửi được header nên token đi qua query ?token=.
func (h *Hub) HandleUserWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
		return
	}
	claims, err := utils.VerifyToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("WebSocket upgrade failed:", err)
		return
	}

	client := h.Register(claims.UserID, claims.Role, TransportWebSocket)

	if data, err := (Event{Type: EventConnected, Message: "Connected to notifications"}).encode(); err == nil {
		client.trySend(data)
	}

	go h.readPump(client, conn)
	h.writePump(client, conn)
}

// readPump chỉ dùng để phát hiện client ngắt kết nối.
func (h *Hub) readPump(client *Client, conn *websocket.Conn) {
	defer h.Unregister(client)

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

func (h *Hub) writePump(client *Client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		h.Unregister(client)
		conn.WriteMessage(websocket.CloseMessage, []byte{})
		conn.Close()
		log.Printf("User WS disconnected: client=%d user=%s", client.ID, client.UserID)
	}()

	write := func(msg []byte) error {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteMessage(websocket.TextMessage, msg)
	}

	for {
		select {
		case msg := <-client.Send:
			if err := write(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-client.Done():
			for _, msg := range client.Drain() {
				if err := write(msg); err != nil {
					return
				}
			}
			return
		}
	}
}
