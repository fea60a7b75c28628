package broadcast

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-redis/redis/v8"
)

const redisChannelName = "staffmap:broadcast"

// RedisChannel fans messages out across application instances through redis
// pub/sub. Unlike the memory driver it does not replay current values to new
// subscribers; redis pub/sub is fire-and-forget.
type RedisChannel struct {
	client *redis.Client
}

// NewRedisChannel connects a broadcast channel to the redis server at addr.
func NewRedisChannel(addr string) *RedisChannel {
	return &RedisChannel{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// Publish serializes the message and publishes it on the shared channel.
func (c *RedisChannel) Publish(ctx context.Context, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, redisChannelName, raw).Err()
}

// Subscribe attaches a listener to the shared channel. Malformed payloads are
// dropped.
func (c *RedisChannel) Subscribe(ctx context.Context) (<-chan Message, func()) {
	sub := c.client.Subscribe(ctx, redisChannelName)
	out := make(chan Message, 16)

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = sub.Close()
		})
	}

	go func() {
		defer close(out)
		for raw := range sub.Channel() {
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				continue
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				cancel()
				return
			}
		}
	}()
	go func() {
		<-ctx.Done()
		cancel()
	}()
	return out, cancel
}

// Close releases the redis connection.
func (c *RedisChannel) Close() error {
	return c.client.Close()
}
