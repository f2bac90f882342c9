package job

import (
	"log/slog"
	"time"
)

// config holds job manager configuration.
type config struct {
	queues      map[string]int
	logger      *slog.Logger
	schedules   []scheduleConfig
	maxWorkers  int
	stopTimeout time.Duration
}

func newConfig() *config {
	return &config{
		queues:      make(map[string]int),
		maxWorkers:  defaultMaxWorkers,
		stopTimeout: defaultStopTimeout,
	}
}

// scheduleConfig holds one periodic dispatch.
type scheduleConfig struct {
	payload  any
	name     string
	schedule string
	path     string
}

// Option configures the job manager.
type Option func(*config)

// WithScheduledDispatch dispatches payload to path on a cron schedule
// (5 fields: min hour day month weekday). The name tags the jobs.
//
// Example:
//
//	job.WithScheduledDispatch("hourly_cleanup", "0 * * * *", "/sessions/cleanup", nil)
func WithScheduledDispatch(name, schedule, path string, payload any) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, scheduleConfig{
			name:     name,
			schedule: schedule,
			path:     path,
			payload:  payload,
		})
	}
}

// WithQueue configures a named queue with the specified number of workers.
//
// Example:
//
//	job.WithQueue("email", 10)
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithLogger sets the logger for job processing.
// If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the number of workers of the default queue.
// Defaults to 100.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithStopTimeout bounds how long Run waits for running jobs after its
// context is cancelled. Defaults to 30 seconds.
func WithStopTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.stopTimeout = d
		}
	}
}
