package redisqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/pkg/logger"
)

const (
	defaultBlockTimeout = 5 * time.Second
	defaultConcurrency  = 1
	errorBackoff        = time.Second
)

// Consumer pops items from a Redis list and dispatches them.
// It implements relay.Source.
//
// Items are removed before dispatch, so a crash mid-dispatch loses the
// item. Failed dispatches go to the dead-letter list when one is set.
type Consumer struct {
	client      redis.UniversalClient
	dispatcher  relay.Dispatcher
	logger      *slog.Logger
	key         string
	defaultPath string
	deadLetter  string
	block       time.Duration
	concurrency int
}

// Option configures a Consumer.
type Option func(*Consumer)

// WithDefaultPath dispatches items that are not envelopes to path.
func WithDefaultPath(path string) Option {
	return func(c *Consumer) {
		c.defaultPath = path
	}
}

// WithDeadLetter pushes failed items to key together with the error.
func WithDeadLetter(key string) Option {
	return func(c *Consumer) {
		c.deadLetter = key
	}
}

// WithBlockTimeout sets how long one BLPOP waits. Default: 5s.
func WithBlockTimeout(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.block = d
		}
	}
}

// WithConcurrency sets the number of concurrent poppers. Default: 1,
// which preserves list order.
func WithConcurrency(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the consumer logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConsumer creates a consumer of the list at key.
func NewConsumer(client redis.UniversalClient, d relay.Dispatcher, key string, opts ...Option) (*Consumer, error) {
	if client == nil {
		return nil, ErrClientRequired
	}
	if d == nil {
		return nil, ErrDispatcherRequired
	}
	if key == "" {
		return nil, ErrKeyRequired
	}

	c := &Consumer{
		client:      client,
		dispatcher:  d,
		key:         key,
		logger:      logger.NewNope(),
		block:       defaultBlockTimeout,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run pops and dispatches items until ctx is cancelled.
// Returns ctx.Err() on a clean stop.
func (c *Consumer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for range c.concurrency {
		g.Go(func() error {
			return c.loop(gctx)
		})
	}
	c.logger.InfoContext(ctx, "redis consumer started",
		slog.String("key", c.key),
		slog.Int("concurrency", c.concurrency),
	)
	return g.Wait()
}

func (c *Consumer) loop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := c.client.BLPop(ctx, c.block, c.key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			continue
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.ErrorContext(ctx, "redis pop failed", slog.String("key", c.key), slog.String("error", err.Error()))
			if !sleep(ctx, errorBackoff) {
				return ctx.Err()
			}
			continue
		}

		// BLPOP returns [key, value].
		if len(res) == 2 {
			c.handle(ctx, res[1])
		}
	}
}

// handle dispatches one item. Failures never stop the consumer.
func (c *Consumer) handle(ctx context.Context, item string) {
	msg, err := decode(item, c.defaultPath)
	if err == nil {
		_, err = c.dispatcher.DispatchMessage(ctx, msg)
	}
	if err == nil {
		return
	}

	c.logger.WarnContext(ctx, "queued dispatch failed",
		slog.String("key", c.key),
		slog.String("path", msg.Path),
		slog.String("error", err.Error()),
	)
	if c.deadLetter == "" {
		return
	}
	if dlErr := c.pushDeadLetter(context.WithoutCancel(ctx), item, err); dlErr != nil {
		c.logger.ErrorContext(ctx, "dead letter push failed", slog.String("error", dlErr.Error()))
	}
}

// DeadLetter is an item that could not be dispatched.
type DeadLetter struct {
	FailedAt time.Time `json:"failed_at"`
	Item     string    `json:"item"`
	Error    string    `json:"error"`
	Status   int       `json:"status,omitempty"`
}

func (c *Consumer) pushDeadLetter(ctx context.Context, item string, cause error) error {
	dl := DeadLetter{Item: item, Error: cause.Error(), FailedAt: time.Now().UTC()}
	if pe := relay.AsProcessingError(cause); pe != nil {
		dl.Status = pe.StatusCode()
	}
	b, err := json.Marshal(dl)
	if err != nil {
		return err
	}
	if err := c.client.RPush(ctx, c.deadLetter, b).Err(); err != nil {
		return fmt.Errorf("redisqueue: dead letter: %w", err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
