package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "order:ord-1", OrderChannel("ord-1"))
	assert.Equal(t, "restaurant:rest-1", RestaurantChannel("rest-1"))
	assert.Equal(t, "rider:rider-1", RiderChannel("rider-1"))
}

func TestRedisNotifier_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, OrderChannel("ord-1"))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	notifier := NewRedisNotifier(client)
	notifier.Publish(ctx, OrderChannel("ord-1"), EventOrderStatusUpdate, map[string]string{"status": "CONFIRMED"})

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, OrderChannel("ord-1"), msg.Channel)

	var got struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, EventOrderStatusUpdate, got.Event)
	assert.Equal(t, "CONFIRMED", got.Data["status"])
}

func TestRedisNotifier_SwallowsFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	notifier := NewRedisNotifier(client)

	// must not panic or surface the broken connection
	notifier.Publish(context.Background(), OrderChannel("ord-1"), EventOrderCancelled, map[string]string{"status": "CANCELLED"})
}

func TestRedisNotifier_UnmarshalablePayload(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	notifier := NewRedisNotifier(client)

	notifier.Publish(context.Background(), OrderChannel("ord-1"), EventOrderUpdate, make(chan int))
}
