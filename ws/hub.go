package ws

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

const defaultClientBuffer = 64

// Client là một kết nối đang mở (SSE hoặc WebSocket) của một user.
type Client struct {
	ID        uint64
	UserID    string
	Role      string
	Transport string
	Send      chan []byte

	done      chan struct{}
	closeOnce sync.Once
}

// Done đóng khi client bị thay thế, bị loại hoặc hub dừng.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// Drain trả về các message còn trong buffer, dùng khi pump kết thúc sau Done.
func (c *Client) Drain() [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.Send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

type HubStats struct {
	Connections int `json:"connections"`
	SSE         int `json:"sse"`
	WebSocket   int `json:"websocket"`
}

// Hub giữ tối đa một kết nối cho mỗi user; kết nối mới thay thế kết nối cũ.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client // theo userID

	nextID    atomic.Uint64
	buffer    int
	heartbeat time.Duration
	now       func() time.Time
}

func NewHub(heartbeat time.Duration, buffer int) *Hub {
	if buffer <= 0 {
		buffer = defaultClientBuffer
	}
	if heartbeat <= 0 {
		heartbeat = 30 * time.Second
	}
	return &Hub{
		clients:   make(map[string]*Client),
		buffer:    buffer,
		heartbeat: heartbeat,
		now:       time.Now,
	}
}

// Register thêm kết nối mới cho user, gửi "reconnected" rồi đóng kết nối cũ nếu có.
func (h *Hub) Register(userID, role, transport string) *Client {
	c := &Client{
		ID:        h.nextID.Add(1),
		UserID:    userID,
		Role:      role,
		Transport: transport,
		Send:      make(chan []byte, h.buffer),
		done:      make(chan struct{}),
	}

	h.mu.Lock()
	old := h.clients[userID]
	h.clients[userID] = c
	h.mu.Unlock()

	if old != nil {
		if data, err := (Event{Type: EventReconnected, Message: "Connected from another session"}).encode(); err == nil {
			old.trySend(data)
		}
		old.close()
		log.Printf("Closed previous connection %d for user %s", old.ID, userID)
	}

	log.Printf("Client %d connected (%s) for user %s", c.ID, transport, userID)
	return c
}

// Unregister chỉ xoá entry nếu nó vẫn là kết nối hiện tại của user.
func (h *Hub) Unregister(c *Client) {
	if c == nil {
		return
	}
	h.mu.Lock()
	if cur, ok := h.clients[c.UserID]; ok && cur == c {
		delete(h.clients, c.UserID)
	}
	h.mu.Unlock()
	c.close()
}

func (h *Hub) client(userID string) *Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clients[userID]
}

// SendToUser đẩy event tới kết nối đang mở của user. Ghi thất bại (buffer đầy,
// client đã đóng) thì client bị loại khỏi hub.
func (h *Hub) SendToUser(userID string, ev Event) bool {
	c := h.client(userID)
	if c == nil {
		return false
	}

	data, err := ev.encode()
	if err != nil {
		log.Printf("JSON marshal error: %v", err)
		return false
	}

	if !c.trySend(data) {
		log.Printf("Error sending %s to client %d, removing it", ev.Type, c.ID)
		h.Unregister(c)
		return false
	}
	return true
}

func (h *Hub) IsOnline(userID string) bool {
	return h.client(userID) != nil
}

func (h *Hub) snapshot() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

// Heartbeat gửi nhịp tới mọi client, trả về số client bị loại.
func (h *Hub) Heartbeat() int {
	data, err := HeartbeatEvent(h.now()).encode()
	if err != nil {
		return 0
	}

	dropped := 0
	for _, c := range h.snapshot() {
		if !c.trySend(data) {
			log.Printf("Error sending heartbeat to client %d, removing it", c.ID)
			h.Unregister(c)
			dropped++
		}
	}
	return dropped
}

// Run phát heartbeat định kỳ cho tới khi ctx bị huỷ, sau đó đóng mọi kết nối.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.CloseAll()
			return
		case <-ticker.C:
			h.Heartbeat()
		}
	}
}

func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]*Client)
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (h *Hub) Stats() HubStats {
	h.mu.RLock()
	defer h.mu.RUnlock()

	stats := HubStats{Connections: len(h.clients)}
	for _, c := range h.clients {
		switch c.Transport {
		case TransportSSE:
			stats.SSE++
		case TransportWebSocket:
			stats.WebSocket++
		}
	}
	return stats
}
