package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisBroadcaster publishes pushes on redis pub/sub, one message per channel.
type RedisBroadcaster struct {
	client *redis.Client
	after  func(time.Duration) <-chan time.Time
}

func NewRedisBroadcaster(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, after: time.After}
}

// Broadcast publishes p once its DelaySeconds have passed.
func (b *RedisBroadcaster) Broadcast(ctx context.Context, p Push) error {
	if p.DelaySeconds > 0 {
		select {
		case <-b.after(time.Duration(p.DelaySeconds) * time.Second):
		case <-ctx.Done():
			return fmt.Errorf("push %s not published: %w", p.ID, ctx.Err())
		}
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode push: %w", err)
	}

	pipe := b.client.Pipeline()
	for _, ch := range p.Channels {
		pipe.Publish(ctx, ch, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish push: %w", err)
	}
	return nil
}

// Subscribe relays the pushes addressed to userID until ctx is done.
func (b *RedisBroadcaster) Subscribe(ctx context.Context, userID int64) (<-chan []byte, error) {
	ps := b.client.Subscribe(ctx, UserChannel(userID))
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer ps.Close()
		msgs := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
