package job

import (
	"time"

	"github.com/riverqueue/river"
)

// enqueueConfig holds options for enqueueing a job.
type enqueueConfig struct {
	scheduledAt *time.Time
	queue       string
	uniqueKey   string
	tags        []string
	maxAttempts int
	uniqueFor   time.Duration
	priority    int
}

// EnqueueOption configures job enqueueing.
type EnqueueOption func(*enqueueConfig)

// InQueue specifies which queue to use for the job.
// If not specified, the default queue is used.
//
// Example:
//
//	enqueuer.Enqueue(ctx, "/emails/send", payload, job.InQueue("email"))
func InQueue(name string) EnqueueOption {
	return func(c *enqueueConfig) {
		if name != "" {
			c.queue = name
		}
	}
}

// ScheduledAt schedules the dispatch for a specific time.
func ScheduledAt(t time.Time) EnqueueOption {
	return func(c *enqueueConfig) {
		c.scheduledAt = &t
	}
}

// ScheduledIn schedules the dispatch after a duration.
//
// Example:
//
//	enqueuer.Enqueue(ctx, "/reminders", payload, job.ScheduledIn(24*time.Hour))
func ScheduledIn(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		t := time.Now().Add(d)
		c.scheduledAt = &t
	}
}

// MaxAttempts sets the maximum number of attempts for the job.
// Defaults to River's default (25 attempts).
func MaxAttempts(n int) EnqueueOption {
	return func(c *enqueueConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// UniqueFor ensures only one job per path exists for the specified
// duration. Combine with UniqueKey to deduplicate per path and key.
//
// Example:
//
//	enqueuer.Enqueue(ctx, "/users/sync", payload,
//	    job.UniqueFor(5*time.Minute),
//	    job.UniqueKey(userID))
func UniqueFor(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		c.uniqueFor = d
	}
}

// UniqueKey sets a custom key for deduplication with UniqueFor.
func UniqueKey(key string) EnqueueOption {
	return func(c *enqueueConfig) {
		c.uniqueKey = key
	}
}

// Priority sets the job priority (lower numbers = higher priority).
func Priority(p int) EnqueueOption {
	return func(c *enqueueConfig) {
		c.priority = p
	}
}

// Tags adds metadata tags to the job.
func Tags(tags ...string) EnqueueOption {
	return func(c *enqueueConfig) {
		c.tags = append(c.tags, tags...)
	}
}

func insertOpts(args *dispatchArgs, opts ...EnqueueOption) *river.InsertOpts {
	cfg := &enqueueConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	io := &river.InsertOpts{}
	if cfg.queue != "" {
		io.Queue = cfg.queue
	}
	if cfg.scheduledAt != nil {
		io.ScheduledAt = *cfg.scheduledAt
	}
	if cfg.maxAttempts > 0 {
		io.MaxAttempts = cfg.maxAttempts
	}
	if cfg.priority > 0 {
		io.Priority = cfg.priority
	}
	if len(cfg.tags) > 0 {
		io.Tags = cfg.tags
	}
	if cfg.uniqueFor > 0 {
		io.UniqueOpts = river.UniqueOpts{ByArgs: true, ByPeriod: cfg.uniqueFor}
		if cfg.uniqueKey != "" {
			args.UniqueKey = cfg.uniqueKey
		}
	}
	return io
}
