package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/relay/pkg/logger"
)

const defaultShutdownTimeout = 30 * time.Second

// ErrNoSources is returned by Run when no payload source is configured.
var ErrNoSources = errors.New("relay: no payload sources configured")

// Source delivers payloads to a bridge. Run blocks until ctx is cancelled
// or the source fails. Returning ctx.Err() after cancellation is a clean stop.
type Source interface {
	Run(ctx context.Context) error
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) error

func (f SourceFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Dispatcher is what sources deliver messages to. *Bridge implements it.
type Dispatcher interface {
	DispatchMessage(ctx context.Context, msg Message) (*Response, error)
}

// RunOption configures Run.
type RunOption func(*runConfig)

type runConfig struct {
	baseCtx         context.Context
	logger          *slog.Logger
	sources         []namedSource
	startupHooks    []func(context.Context) error
	shutdownHooks   []func(context.Context) error
	shutdownTimeout time.Duration
}

type namedSource struct {
	source Source
	name   string
}

// WithSource adds a payload source. Sources run concurrently; the first
// one to fail stops the others.
func WithSource(name string, s Source) RunOption {
	return func(c *runConfig) {
		if s != nil {
			c.sources = append(c.sources, namedSource{name: name, source: s})
		}
	}
}

// WithRunLogger sets the logger for lifecycle events.
func WithRunLogger(l *slog.Logger) RunOption {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithShutdownTimeout bounds the time given to shutdown hooks. Default: 30s.
func WithShutdownTimeout(d time.Duration) RunOption {
	return func(c *runConfig) {
		c.shutdownTimeout = d
	}
}

// WithStartupHook runs fn before any source starts. A failing hook aborts Run.
func WithStartupHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		c.startupHooks = append(c.startupHooks, fn)
	}
}

// WithShutdownHook runs fn after every source has stopped.
// Hooks run in registration order and all of them run even when one fails.
func WithShutdownHook(fn func(context.Context) error) RunOption {
	return func(c *runConfig) {
		c.shutdownHooks = append(c.shutdownHooks, fn)
	}
}

// WithRunContext sets the parent of the signal-aware context.
func WithRunContext(ctx context.Context) RunOption {
	return func(c *runConfig) {
		c.baseCtx = ctx
	}
}

// Run starts every source and blocks until SIGINT, SIGTERM, cancellation of
// the base context, or the first source failure. Shutdown hooks then run
// with a fresh context bounded by the shutdown timeout.
//
// Returns nil on a clean shutdown.
func Run(opts ...RunOption) error {
	cfg := &runConfig{
		baseCtx:         context.Background(),
		logger:          logger.NewNope(),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if len(cfg.sources) == 0 {
		return ErrNoSources
	}

	ctx, stop := signal.NotifyContext(cfg.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, hook := range cfg.startupHooks {
		if err := hook(ctx); err != nil {
			return errors.Join(fmt.Errorf("relay: startup hook: %w", err), cfg.shutdown())
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range cfg.sources {
		g.Go(func() error {
			cfg.logger.Info("source starting", slog.String("source", s.name))
			err := s.source.Run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				cfg.logger.Error("source failed", slog.String("source", s.name), slog.String("error", err.Error()))
				return fmt.Errorf("relay: source %s: %w", s.name, err)
			}
			cfg.logger.Info("source stopped", slog.String("source", s.name))
			return nil
		})
	}

	runErr := g.Wait()
	cfg.logger.Info("shutting down")
	return errors.Join(runErr, cfg.shutdown())
}

func (cfg *runConfig) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()

	var errs []error
	for _, hook := range cfg.shutdownHooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			cfg.logger.Error("shutdown hook failed", slog.String("error", err.Error()))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	cfg.logger.Info("shutdown completed")
	return nil
}
