// Command example runs a relay service: messages pulled from a Redis list
// and dispatch jobs stored in Postgres are served by one chi router.
package main

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/middlewares"
	"github.com/dmitrymomot/relay/pkg/config"
	"github.com/dmitrymomot/relay/pkg/db"
	"github.com/dmitrymomot/relay/pkg/health"
	"github.com/dmitrymomot/relay/pkg/job"
	"github.com/dmitrymomot/relay/pkg/journal"
	"github.com/dmitrymomot/relay/pkg/logger"
	"github.com/dmitrymomot/relay/pkg/redis"
	"github.com/dmitrymomot/relay/pkg/redisqueue"
	"github.com/dmitrymomot/relay/pkg/session"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(getEnv("RELAY_CONFIG", "example/config.yaml"))
	if err != nil {
		logger.New().Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg)

	if err := run(ctx, cfg, log); err != nil {
		log.Error("application error", "error", err)
		logger.FlushSentry(2 * time.Second)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var (
		pool   *pgxpool.Pool
		client goredis.UniversalClient
		hooks  []func(context.Context) error
		checks = health.Checks{}
	)

	if cfg.Database.URL != "" {
		p, err := db.Open(ctx, cfg.Database.URL,
			db.WithMaxConns(cfg.Database.MaxConns),
			db.WithRetry(5, 2*time.Second),
			db.WithLogger(log),
		)
		if err != nil {
			return err
		}
		pool = p
		hooks = append(hooks, db.Shutdown(pool))
		checks["postgres"] = db.Healthcheck(pool)

		if err := db.Migrate(ctx, pool, journal.Migrations(), db.DefaultMigrationsTable, log); err != nil {
			return err
		}
	}

	if cfg.Queue.RedisURL != "" {
		c, err := redis.Open(ctx, cfg.Queue.RedisURL,
			redis.WithClientName(cfg.Server.Name),
			redis.WithLogger(log),
		)
		if err != nil {
			return err
		}
		client = c
		hooks = append(hooks, redis.Shutdown(client))
		checks["redis"] = redis.Healthcheck(client)
	}

	store, closeStore := newSessionStore(cfg, client)
	hooks = append(hooks, closeStore)

	var recorder journal.Recorder = journal.NewMemory(1024)
	var pg *journal.Postgres
	if pool != nil {
		pg = journal.NewPostgres(pool)
		recorder = pg
	}

	app := relay.New(
		relay.WithCustomLogger(log.With(slog.String("component", "router"))),
		relay.WithMiddleware(
			middlewares.Recover(),
			middlewares.RequestID(),
			middlewares.AccessLog(),
			middlewares.Locale(supportedLocales...),
			middlewares.Timeout(10*time.Second),
		),
		relay.WithHandlers(
			&inboxHandler{route: cfg.Queue.Route},
			&maintenanceHandler{journal: pg},
			health.Routes{
				Liveness:  "/health/live",
				Readiness: "/health/ready",
				Checks:    checks,
				Options:   []health.Option{health.WithLogger(log)},
			},
		),
	)

	bridge, err := relay.NewBridge(app,
		relay.WithServer(cfg.Server.Name, cfg.Server.Port),
		relay.WithSessionStore(store),
		relay.WithSessionTTL(cfg.Session.TTL),
		relay.WithRecorder(recorder),
		relay.WithBridgeLogger(log),
	)
	if err != nil {
		return err
	}

	opts := []relay.RunOption{
		relay.WithRunLogger(log),
		relay.WithShutdownTimeout(cfg.ShutdownTimeout),
		relay.WithStartupHook(health.StartupHook(maps.Clone(checks), health.WithLogger(log))),
	}

	if client != nil {
		consumer, err := redisqueue.NewConsumer(client, bridge, cfg.Queue.Key,
			redisqueue.WithDefaultPath(cfg.Queue.Route),
			redisqueue.WithDeadLetter(cfg.Queue.DeadLetter),
			redisqueue.WithConcurrency(cfg.Queue.Concurrency),
			redisqueue.WithLogger(log),
		)
		if err != nil {
			return err
		}
		opts = append(opts, relay.WithSource("redis:"+cfg.Queue.Key, consumer))
	}

	if cfg.Jobs.Enabled {
		opts = append(opts, relay.WithStartupHook(func(ctx context.Context) error {
			return job.Migrate(ctx, pool, log)
		}))

		jobOpts := []job.Option{
			job.WithLogger(log),
			job.WithMaxWorkers(cfg.Jobs.MaxWorkers),
			job.WithStopTimeout(cfg.ShutdownTimeout),
		}
		for _, s := range cfg.Jobs.Schedules {
			jobOpts = append(jobOpts, job.WithScheduledDispatch(s.Name, s.Cron, s.Path, nil))
		}
		manager, err := job.NewManager(pool, bridge, jobOpts...)
		if err != nil {
			return err
		}
		checks["river"] = job.Healthcheck(manager)
		opts = append(opts, relay.WithSource("river", manager))
	}

	for _, hook := range hooks {
		opts = append(opts, relay.WithShutdownHook(hook))
	}
	opts = append(opts, relay.WithShutdownHook(func(context.Context) error {
		logger.FlushSentry(2 * time.Second)
		return nil
	}))

	return relay.Run(opts...)
}

func newLogger(cfg config.Config) *slog.Logger {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	stdout := logger.Config{Format: cfg.Log.Format, Level: level}
	extractors := []logger.ContextExtractor{
		relay.DispatchIDExtractor(),
		middlewares.RequestIDExtractor(),
	}

	if cfg.Sentry.DSN == "" {
		return logger.NewWithConfig(stdout, extractors...)
	}
	return logger.NewWithSentry(logger.SentryConfig{
		DSN:         cfg.Sentry.DSN,
		Environment: cfg.Sentry.Environment,
		Release:     cfg.Sentry.Release,
		Stdout:      stdout,
	}, extractors...)
}

func newSessionStore(cfg config.Config, client goredis.UniversalClient) (session.Store, func(context.Context) error) {
	if cfg.Session.Store == config.SessionStoreRedis {
		return session.NewRedisStore(client, session.WithPrefix(cfg.Server.Name+":session:")),
			func(context.Context) error { return nil }
	}
	store := session.NewMemoryStore()
	return store, func(context.Context) error { return store.Close() }
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
