package redisqueue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/relay"
)

// Producer appends messages to a Redis list read by a Consumer.
type Producer struct {
	client redis.UniversalClient
	key    string
}

// NewProducer creates a producer for the list at key.
func NewProducer(client redis.UniversalClient, key string) (*Producer, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if key == "" {
		return nil, ErrKeyRequired
	}
	return &Producer{client: client, key: key}, nil
}

// Push queues payload for dispatch to path.
func (p *Producer) Push(ctx context.Context, path string, payload any) error {
	return p.PushMessage(ctx, relay.Message{Path: path, Payload: payload})
}

// PushMessage queues a full message.
func (p *Producer) PushMessage(ctx context.Context, msg relay.Message) error {
	b, err := encode(msg)
	if err != nil {
		return err
	}
	if err := p.client.RPush(ctx, p.key, b).Err(); err != nil {
		return fmt.Errorf("redisqueue: push: %w", err)
	}
	return nil
}

// Len returns the number of queued items.
func (p *Producer) Len(ctx context.Context) (int64, error) {
	return p.client.LLen(ctx, p.key).Result()
}
