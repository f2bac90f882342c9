//go:build integration

package redisqueue_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/pkg/id"
	"github.com/dmitrymomot/relay/pkg/redis"
	"github.com/dmitrymomot/relay/pkg/redisqueue"
)

func newClient(t *testing.T) goredis.UniversalClient {
	t.Helper()

	url := os.Getenv("REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/0"
	}
	client, err := redis.Open(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

type chanDispatcher struct {
	mu   sync.Mutex
	fail bool
	got  chan relay.Message
}

func (d *chanDispatcher) DispatchMessage(_ context.Context, msg relay.Message) (*relay.Response, error) {
	d.got <- msg
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return nil, &relay.ProcessingError{Path: msg.Path, Status: http.StatusBadRequest}
	}
	return relay.NewResponse(), nil
}

func TestQueue_RoundTrip(t *testing.T) {
	client := newClient(t)
	key := "relay:test:" + id.NewULID()
	dlq := key + ":failed"
	t.Cleanup(func() { client.Del(context.Background(), key, dlq) })

	d := &chanDispatcher{got: make(chan relay.Message, 4)}
	consumer, err := redisqueue.NewConsumer(client, d, key,
		redisqueue.WithDefaultPath("/inbox"),
		redisqueue.WithDeadLetter(dlq),
		redisqueue.WithBlockTimeout(100*time.Millisecond),
	)
	require.NoError(t, err)
	producer, err := redisqueue.NewProducer(client, key)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- consumer.Run(ctx) }()

	require.NoError(t, producer.Push(ctx, "/orders", map[string]int{"id": 1}))
	require.NoError(t, client.RPush(ctx, key, "raw item").Err())

	first := <-d.got
	assert.Equal(t, "/orders", first.Path)
	second := <-d.got
	assert.Equal(t, "/inbox", second.Path)

	d.mu.Lock()
	d.fail = true
	d.mu.Unlock()
	require.NoError(t, producer.Push(ctx, "/bad", "x"))
	<-d.got

	require.Eventually(t, func() bool {
		return client.LLen(context.Background(), dlq).Val() == 1
	}, 2*time.Second, 20*time.Millisecond)

	raw, err := client.LIndex(context.Background(), dlq, 0).Result()
	require.NoError(t, err)
	var dl redisqueue.DeadLetter
	require.NoError(t, json.Unmarshal([]byte(raw), &dl))
	assert.Equal(t, http.StatusBadRequest, dl.Status)

	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))
}
