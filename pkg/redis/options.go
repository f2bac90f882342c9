package redis

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/relay/pkg/logger"
)

// Option configures a Redis connection.
type Option func(*options)

type options struct {
	logger        *slog.Logger
	clientName    string
	poolSize      int
	minIdleConns  int
	retryAttempts int
	retryInterval time.Duration
	maxIdleTime   time.Duration
	maxActiveTime time.Duration
	dialTimeout   time.Duration
	ioTimeout     time.Duration
}

func defaultOptions() *options {
	return &options{
		logger:        logger.NewNope(),
		clientName:    "relay",
		poolSize:      10,
		minIdleConns:  2,
		retryAttempts: 3,
		retryInterval: 2 * time.Second,
		maxIdleTime:   10 * time.Minute,
		maxActiveTime: 30 * time.Minute,
		dialTimeout:   5 * time.Second,
		ioTimeout:     3 * time.Second,
	}
}

// WithPoolSize sets the maximum number of pooled connections.
// Queue consumers hold one connection each while blocked, so size the pool
// above the number of concurrent consumers. Default: 10
func WithPoolSize(n int) Option {
	return func(o *options) { o.poolSize = n }
}

// WithMinIdleConns sets the number of idle connections kept open. Default: 2
func WithMinIdleConns(n int) Option {
	return func(o *options) { o.minIdleConns = n }
}

// WithConnLifetime sets idle and total connection lifetimes.
// Default: 10 minutes idle, 30 minutes total.
func WithConnLifetime(idle, total time.Duration) Option {
	return func(o *options) {
		o.maxIdleTime = idle
		o.maxActiveTime = total
	}
}

// WithRetry configures startup retries. The wait grows linearly with the
// attempt number. Default: 3 attempts, 2 second base interval.
func WithRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.retryAttempts = attempts
		o.retryInterval = interval
	}
}

// WithTimeouts sets the dial timeout and the read/write timeout.
// Blocking list reads extend the read deadline by their own timeout.
// Default: 5 seconds dial, 3 seconds I/O.
func WithTimeouts(dial, io time.Duration) Option {
	return func(o *options) {
		o.dialTimeout = dial
		o.ioTimeout = io
	}
}

// WithClientName sets the name reported by CLIENT LIST. Default: relay
func WithClientName(name string) Option {
	return func(o *options) { o.clientName = name }
}

// WithLogger logs failed connection attempts.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
