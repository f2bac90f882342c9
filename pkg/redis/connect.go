package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open creates a Redis client and waits until it answers PING.
// Supports redis:// and rediss:// (TLS) URLs.
//
// Example:
//
//	client, err := redis.Open(ctx, cfg.Queue.RedisURL,
//	    redis.WithPoolSize(20),
//	    redis.WithLogger(log),
//	)
func Open(ctx context.Context, url string, opts ...Option) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyConnectionURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrFailedToParseURL
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}
	ro.ClientName = o.clientName
	ro.PoolSize = o.poolSize
	ro.MinIdleConns = o.minIdleConns
	ro.ConnMaxIdleTime = o.maxIdleTime
	ro.ConnMaxLifetime = o.maxActiveTime
	ro.DialTimeout = o.dialTimeout
	ro.ReadTimeout = o.ioTimeout
	ro.WriteTimeout = o.ioTimeout

	return connect(ctx, ro, o)
}

func connect(ctx context.Context, ro *redis.Options, o *options) (redis.UniversalClient, error) {
	attempts := max(o.retryAttempts, 1)

	var lastErr error
	for i := range attempts {
		client := redis.NewClient(ro)
		lastErr = client.Ping(ctx).Err()
		if lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		o.logger.WarnContext(ctx, "redis connection attempt failed",
			slog.Int("attempt", i+1),
			slog.Int("attempts", attempts),
			slog.String("addr", ro.Addr),
			slog.String("error", lastErr.Error()),
		)

		if i == attempts-1 {
			break
		}
		if err := wait(ctx, time.Duration(i+1)*o.retryInterval); err != nil {
			return nil, errors.Join(ErrConnectionFailed, err)
		}
	}

	return nil, errors.Join(ErrConnectionFailed, lastErr)
}

func wait(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Healthcheck returns a probe that pings Redis.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrHealthcheckFailed
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Shutdown returns a shutdown hook that closes the client.
//
//	relay.Run(relay.WithSource("inbox", consumer), relay.WithShutdownHook(redis.Shutdown(client)))
func Shutdown(client io.Closer) func(context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}
