package health

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/relay/pkg/logger"
)

const (
	defaultTimeout = 5 * time.Second

	// StatusHealthy indicates all checks passed.
	StatusHealthy = "healthy"
	// StatusUnhealthy indicates one or more checks failed.
	StatusUnhealthy = "unhealthy"
)

// CheckFunc matches the Healthcheck closures of the db, redis and job packages.
type CheckFunc func(ctx context.Context) error

// Checks is a map of named health check functions.
type Checks map[string]CheckFunc

// Report is the aggregated result of one probe.
type Report struct {
	Checks map[string]Check `json:"checks,omitempty"`
	Status string           `json:"status"`
}

// Check is the status of a single health check.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Healthy reports whether every check passed.
func (r *Report) Healthy() bool {
	return r.Status == StatusHealthy
}

// Err returns nil for a healthy report, otherwise ErrCheckFailed joined
// with one error per failed check in name order.
func (r *Report) Err() error {
	if r.Healthy() {
		return nil
	}
	errs := []error{ErrCheckFailed}
	for _, name := range slices.Sorted(maps.Keys(r.Checks)) {
		if c := r.Checks[name]; c.Status != StatusHealthy {
			errs = append(errs, fmt.Errorf("%s: %s", name, c.Error))
		}
	}
	return errors.Join(errs...)
}

type config struct {
	logger  *slog.Logger
	timeout time.Duration
}

// Option configures health check behavior.
type Option func(*config)

// WithTimeout sets the timeout for all checks.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger for failed checks.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{
		timeout: defaultTimeout,
		logger:  logger.NewNope(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Probe runs all checks in parallel under a shared timeout.
// A check still running at the deadline is reported with ErrCheckTimeout.
func Probe(ctx context.Context, checks Checks, opts ...Option) *Report {
	return probe(ctx, checks, newConfig(opts...))
}

func probe(ctx context.Context, checks Checks, cfg *config) *Report {
	if len(checks) == 0 {
		return &Report{Status: StatusHealthy}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		results = make(map[string]Check, len(checks))
		status  = StatusHealthy
	)

	var g errgroup.Group
	for name, check := range checks {
		g.Go(func() error {
			result := Check{Status: StatusHealthy}
			if err := run(ctx, check); err != nil {
				result = Check{Status: StatusUnhealthy, Error: err.Error()}
				cfg.logger.WarnContext(ctx, "health check failed",
					slog.String("check", name),
					slog.String("error", err.Error()),
				)
			}

			mu.Lock()
			defer mu.Unlock()
			results[name] = result
			if result.Status != StatusHealthy {
				status = StatusUnhealthy
			}
			return nil
		})
	}
	_ = g.Wait()

	return &Report{Status: status, Checks: results}
}

// run calls check and gives up when ctx expires first.
func run(ctx context.Context, check CheckFunc) error {
	done := make(chan error, 1)
	go func() { done <- check(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ErrCheckTimeout
	}
}

// StartupHook returns a relay startup hook that fails with the report error
// when any check fails, so sources never start against missing dependencies.
//
//	relay.Run(
//	    relay.WithStartupHook(health.StartupHook(health.Checks{
//	        "postgres": db.Healthcheck(pool),
//	        "redis":    redis.Healthcheck(client),
//	    })),
//	)
func StartupHook(checks Checks, opts ...Option) func(context.Context) error {
	cfg := newConfig(opts...)
	return func(ctx context.Context) error {
		return probe(ctx, checks, cfg).Err()
	}
}
