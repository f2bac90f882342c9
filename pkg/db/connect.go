package db

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/relay/pkg/logger"
)

// Option configures the connection pool.
type Option func(*options)

type options struct {
	logger            *slog.Logger
	maxConns          int32
	minConns          int32
	retryAttempts     int
	retryInterval     time.Duration
	healthCheckPeriod time.Duration
	maxConnIdleTime   time.Duration
	maxConnLifetime   time.Duration
}

func defaultOptions() *options {
	return &options{
		logger:            logger.NewNope(),
		maxConns:          10,
		minConns:          2,
		retryAttempts:     3,
		retryInterval:     2 * time.Second,
		healthCheckPeriod: time.Minute,
		maxConnIdleTime:   10 * time.Minute,
		maxConnLifetime:   30 * time.Minute,
	}
}

// WithMaxConns sets the pool size. River workers and the journal share the
// pool, so keep it above the worker count. Default: 10
func WithMaxConns(n int32) Option {
	return func(o *options) { o.maxConns = n }
}

// WithMinConns sets the number of connections kept open. Default: 2
func WithMinConns(n int32) Option {
	return func(o *options) { o.minConns = n }
}

// WithRetry configures startup retries. Default: 3 attempts, 2 second base interval.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// WithConnLifetime sets idle and total connection lifetimes.
// Default: 10 minutes idle, 30 minutes total.
func WithConnLifetime(idle, total time.Duration) Option {
	return func(o *options) {
		o.maxConnIdleTime = idle
		o.maxConnLifetime = total
	}
}

// WithLogger logs failed connection attempts.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Open creates a PostgreSQL pool and waits until it answers a ping.
// The wait between attempts grows linearly with the attempt number.
func Open(ctx context.Context, url string, opts ...Option) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseDBConfig, err)
	}
	cfg.MaxConns = o.maxConns
	cfg.MinConns = min(o.minConns, o.maxConns)
	cfg.HealthCheckPeriod = o.healthCheckPeriod
	cfg.MaxConnIdleTime = o.maxConnIdleTime
	cfg.MaxConnLifetime = o.maxConnLifetime

	attempts := max(o.retryAttempts, 1)
	var lastErr error
	for i := range attempts {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		o.logger.WarnContext(ctx, "postgres connection attempt failed",
			slog.Int("attempt", i+1),
			slog.Int("attempts", attempts),
			slog.String("error", err.Error()),
		)

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToOpenDBConnection, ctx.Err())
		case <-time.After(time.Duration(i+1) * o.retryInterval):
		}
	}

	return nil, errors.Join(ErrFailedToOpenDBConnection, lastErr)
}

// Healthcheck returns a probe that pings the pool.
func Healthcheck(pool *pgxpool.Pool) func(context.Context) error {
	return func(ctx context.Context) error {
		if pool == nil {
			return ErrHealthcheckFailed
		}
		if err := pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Shutdown returns a shutdown hook that closes the pool.
func Shutdown(pool *pgxpool.Pool) func(context.Context) error {
	return func(context.Context) error {
		pool.Close()
		return nil
	}
}
