package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

type envelope struct {
	UserID string `json:"user_id"`
	Event  Event  `json:"event"`
}

// RedisFanout phát event qua Redis pub/sub để mọi instance cùng giao tới hub
// cục bộ của mình; user kết nối vào instance nào cũng nhận được.
type RedisFanout struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
}

func NewRedisFanout(rdb *redis.Client, channel string, hub *Hub) *RedisFanout {
	if channel == "" {
		channel = "notifications:push"
	}
	return &RedisFanout{rdb: rdb, channel: channel, hub: hub}
}

// SendToUser publish event; true nghĩa là Redis đã nhận, không đảm bảo user đang online.
func (f *RedisFanout) SendToUser(userID string, ev Event) bool {
	payload, err := json.Marshal(envelope{UserID: userID, Event: ev})
	if err != nil {
		log.Printf("JSON marshal error: %v", err)
		return false
	}
	if err := f.rdb.Publish(context.Background(), f.channel, payload).Err(); err != nil {
		log.Printf("Redis publish failed, delivering locally: %v", err)
		return f.hub.SendToUser(userID, ev)
	}
	return true
}

// Run nhận message từ Redis và giao cho hub cục bộ cho tới khi ctx bị huỷ.
func (f *RedisFanout) Run(ctx context.Context) {
	sub := f.rdb.Subscribe(ctx, f.channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			f.deliver([]byte(msg.Payload))
		}
	}
}

func (f *RedisFanout) deliver(payload []byte) {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		log.Printf("Invalid fanout payload: %v", err)
		return
	}
	if env.UserID == "" {
		return
	}
	f.hub.SendToUser(env.UserID, env.Event)
}
