package session

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "relay:session"

// RedisStore keeps sessions in Redis as JSON documents.
// Keys expire after the session's MaxInactiveInterval.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures the Redis store.
type RedisOption func(*RedisStore)

// WithPrefix sets the key prefix. Keys are stored as "{prefix}:{id}".
// Default: "relay:session".
func WithPrefix(prefix string) RedisOption {
	return func(r *RedisStore) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed session store.
// The client should be obtained from pkg/redis.Open.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	r := &RedisStore{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get loads a session.
func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	if s.Values == nil {
		s.Values = make(map[string]any)
	}
	return &s, nil
}

// Save writes the session and drops the entry under its previous identifier.
func (r *RedisStore) Save(ctx context.Context, s *Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}

	// Redis interprets 0 as no expiration.
	ttl := max(s.MaxInactiveInterval, 0)

	pipe := r.client.TxPipeline()
	if prev := s.PreviousID(); prev != "" {
		pipe.Del(ctx, r.key(prev))
	}
	pipe.Set(ctx, r.key(s.ID), data, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Delete removes a session.
func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *RedisStore) key(id string) string {
	return r.prefix + ":" + id
}

var _ Store = (*RedisStore)(nil)
