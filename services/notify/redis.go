package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"mhedlund/pricetracker/pkg/errors"
)

// RedisNotifier publishes alerts as JSON entries on a capped Redis stream,
// for consumers that fan deals out to chat bots or dashboards.
type RedisNotifier struct {
	client    *redis.Client
	stream    string
	maxLength int64
}

// NewRedisNotifier creates a Redis stream sink
func NewRedisNotifier(addr string, db int, stream string, maxLength int64) *RedisNotifier {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	return &RedisNotifier{
		client:    client,
		stream:    stream,
		maxLength: maxLength,
	}
}

// Notify appends the alert to the stream, trimming it to the configured
// maximum length
func (n *RedisNotifier) Notify(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return errors.NewDelivery(alert.Item, "failed to encode alert", err)
	}

	err = n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		MaxLen: n.maxLength,
		Approx: true,
		Values: map[string]interface{}{
			"alert": payload,
		},
	}).Err()
	if err != nil {
		return errors.NewDelivery(alert.Item, "failed to publish alert to redis", err)
	}
	return nil
}

// Test publishes the canned test alert
func (n *RedisNotifier) Test(ctx context.Context) error {
	return n.Notify(ctx, TestAlert())
}

// Close closes the Redis connection
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}
