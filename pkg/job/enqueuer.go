package job

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/pkg/logger"
)

// Enqueuer inserts dispatch jobs without processing them.
// Use it in processes that only produce payloads for separate workers.
type Enqueuer struct {
	pool   *pgxpool.Pool
	client *river.Client[pgx.Tx]
	logger *slog.Logger
}

// EnqueuerOption configures the enqueuer.
type EnqueuerOption func(*enqueuerConfig)

type enqueuerConfig struct {
	logger *slog.Logger
}

// WithEnqueuerLogger sets the logger for the enqueuer.
func WithEnqueuerLogger(l *slog.Logger) EnqueuerOption {
	return func(c *enqueuerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewEnqueuer creates an insert-only River client.
func NewEnqueuer(pool *pgxpool.Pool, opts ...EnqueuerOption) (*Enqueuer, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := &enqueuerConfig{logger: logger.NewNope()}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Logger: cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create enqueuer client: %w", err)
	}

	return &Enqueuer{
		pool:   pool,
		client: client,
		logger: cfg.logger,
	}, nil
}

// Enqueue schedules payload for dispatch to path.
func (e *Enqueuer) Enqueue(ctx context.Context, path string, payload any, opts ...EnqueueOption) error {
	return e.EnqueueMessage(ctx, relay.Message{Path: path, Payload: payload}, opts...)
}

// EnqueueMessage schedules a full message for dispatch.
func (e *Enqueuer) EnqueueMessage(ctx context.Context, msg relay.Message, opts ...EnqueueOption) error {
	args, err := newDispatchArgs(msg)
	if err != nil {
		return err
	}

	res, err := e.client.Insert(ctx, args, insertOpts(args, opts...))
	if err != nil {
		return fmt.Errorf("job: enqueue: %w", err)
	}
	e.logger.DebugContext(ctx, "dispatch enqueued",
		slog.String("path", msg.Path),
		slog.Int64("job_id", res.Job.ID),
		slog.Bool("skipped", res.UniqueSkippedAsDuplicate),
	)
	return nil
}

// EnqueueTx schedules payload within tx. The job becomes visible when tx commits.
func (e *Enqueuer) EnqueueTx(ctx context.Context, tx pgx.Tx, path string, payload any, opts ...EnqueueOption) error {
	args, err := newDispatchArgs(relay.Message{Path: path, Payload: payload})
	if err != nil {
		return err
	}

	if _, err := e.client.InsertTx(ctx, tx, args, insertOpts(args, opts...)); err != nil {
		return fmt.Errorf("job: enqueue tx: %w", err)
	}
	return nil
}
