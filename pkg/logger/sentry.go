package logger

import (
	"context"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
	// Stdout configures the local handler that always receives records.
	Stdout Config
	// MinLevel determines which levels are stored in Sentry: warn (default)
	// stores warnings and errors, error stores errors only. Errors always
	// create issues.
	MinLevel slog.Level
}

// NewWithSentry creates a logger that writes to stdout and Sentry.
// If DSN is empty or Sentry fails to initialise, only stdout is used.
// Context extractors are applied to records sent to both destinations.
func NewWithSentry(cfg SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	stdout := newHandler(cfg.Stdout)

	if cfg.DSN == "" {
		return slog.New(NewLogHandlerDecorator(stdout, extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: cfg.Environment,
		Release:     cfg.Release,
		EnableLogs:  true,
	}); err != nil {
		slog.New(stdout).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return slog.New(NewLogHandlerDecorator(stdout, extractors...))
	}

	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.MinLevel >= slog.LevelError {
		logLevel = []slog.Level{slog.LevelError}
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background())

	return slog.New(NewLogHandlerDecorator(multiHandler{stdout, sentryHandler}, extractors...))
}

// FlushSentry waits up to timeout for buffered Sentry events to be sent.
// It is safe to call when Sentry was never initialised.
func FlushSentry(timeout time.Duration) bool {
	return sentry.Flush(timeout)
}
