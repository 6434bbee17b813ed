// Package notify is the outbound real-time event port. Events are a UI
// refresh hint only: no delivery guarantee, no ordering, no replay.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

const (
	EventNewOrder          = "newOrder"
	EventOrderStatusUpdate = "orderStatusUpdate"
	EventOrderUpdate       = "orderUpdate"
	EventOrderCancelled    = "orderCancelled"
)

// Notifier publishes a named event to a room. Publish failures are
// swallowed by contract, the caller has already committed its
// transaction.
type Notifier interface {
	Publish(ctx context.Context, channel, event string, payload any)
}

func OrderChannel(orderID string) string           { return fmt.Sprintf("order:%s", orderID) }
func RestaurantChannel(restaurantID string) string { return fmt.Sprintf("restaurant:%s", restaurantID) }
func RiderChannel(riderID string) string           { return fmt.Sprintf("rider:%s", riderID) }

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// RedisNotifier broadcasts over Redis pub/sub, one channel per room.
type RedisNotifier struct {
	client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Publish(ctx context.Context, channel, event string, payload any) {
	msg, err := json.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		slog.Warn("notify: marshal failed", "channel", channel, "event", event, "error", err)
		return
	}

	if err := n.client.Publish(ctx, channel, msg).Err(); err != nil {
		slog.Warn("notify: publish failed", "channel", channel, "event", event, "error", err)
	}
}
