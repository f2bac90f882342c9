package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalid is joined with every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Validate checks the configuration and reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		fail("server.port must be in 1..65535, got %d", c.Server.Port)
	}
	if c.Queue.RedisURL != "" {
		if c.Queue.Key == "" {
			fail("queue.key is required when queue.redis_url is set")
		}
		if c.Queue.Route != "" && !strings.HasPrefix(c.Queue.Route, "/") {
			fail("queue.route must start with /, got %q", c.Queue.Route)
		}
		if c.Queue.Concurrency <= 0 {
			fail("queue.concurrency must be positive")
		}
	}
	if c.Jobs.Enabled && c.Database.URL == "" {
		fail("jobs.enabled requires database.url")
	}
	if c.Jobs.MaxWorkers <= 0 {
		fail("jobs.max_workers must be positive")
	}
	for i, s := range c.Jobs.Schedules {
		if s.Name == "" || s.Cron == "" || !strings.HasPrefix(s.Path, "/") {
			fail("jobs.schedules[%d] needs name, cron and a path starting with /", i)
		}
	}
	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.Queue.RedisURL == "" {
			fail("session.store redis requires queue.redis_url")
		}
	default:
		fail("session.store must be %q or %q, got %q", SessionStoreMemory, SessionStoreRedis, c.Session.Store)
	}
	if c.Session.TTL <= 0 {
		fail("session.ttl must be positive")
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		fail("log.format must be json or text, got %q", c.Log.Format)
	}
	if c.ShutdownTimeout <= 0 {
		fail("shutdown_timeout must be positive")
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalid}, errs...)...)
}
