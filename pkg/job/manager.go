package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/robfig/cron/v3"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/pkg/logger"
)

const (
	defaultMaxWorkers  = 100
	defaultQueue       = river.QueueDefault
	defaultStopTimeout = 30 * time.Second
)

// Manager processes dispatch jobs with River and delivers them to a
// Dispatcher. It embeds Enqueuer, so the same value can produce jobs.
// Manager implements relay.Source through Run.
type Manager struct {
	*Enqueuer
	logger      *slog.Logger
	stopTimeout time.Duration

	mu      sync.Mutex
	started bool
}

// NewManager creates a manager whose workers hand jobs to d.
// The River client is created immediately, so jobs can be enqueued before
// the manager starts.
func NewManager(pool *pgxpool.Pool, d relay.Dispatcher, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if d == nil {
		return nil, ErrDispatcherRequired
	}

	cfg := newConfig()
	cfg.logger = logger.NewNope()
	for _, opt := range opts {
		opt(cfg)
	}

	queues := map[string]river.QueueConfig{
		defaultQueue: {MaxWorkers: cfg.maxWorkers},
	}
	for name, workers := range cfg.queues {
		queues[name] = river.QueueConfig{MaxWorkers: workers}
	}

	periodicJobs, err := periodicDispatches(cfg.schedules)
	if err != nil {
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &dispatchWorker{
		dispatcher: d,
		logger:     cfg.logger,
	})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       queues,
		Workers:      workers,
		PeriodicJobs: periodicJobs,
		ErrorHandler: &errorHandler{logger: cfg.logger},
		Logger:       cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}

	return &Manager{
		Enqueuer: &Enqueuer{
			pool:   pool,
			client: client,
			logger: cfg.logger,
		},
		logger:      cfg.logger,
		stopTimeout: cfg.stopTimeout,
	}, nil
}

// Start begins processing jobs.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start client: %w", err)
	}

	m.started = true
	m.logger.Info("job manager started")
	return nil
}

// Stop waits for running jobs to complete or ctx to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop client: %w", err)
	}

	m.started = false
	m.logger.Info("job manager stopped")
	return nil
}

// Run starts the manager and blocks until ctx is cancelled, then stops it
// within the stop timeout. It returns ctx.Err() on a clean stop.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), m.stopTimeout)
	defer cancel()
	if err := m.Stop(stopCtx); err != nil && !errors.Is(err, ErrNotStarted) {
		return err
	}
	return ctx.Err()
}

func periodicDispatches(schedules []scheduleConfig) ([]*river.PeriodicJob, error) {
	jobs := make([]*river.PeriodicJob, 0, len(schedules))
	for _, sched := range schedules {
		cronSchedule, err := parseCronSchedule(sched.schedule)
		if err != nil {
			return nil, fmt.Errorf("job: invalid cron schedule %q for %s: %w", sched.schedule, sched.name, err)
		}
		args, err := newDispatchArgs(relay.Message{Path: sched.path, Payload: sched.payload})
		if err != nil {
			return nil, fmt.Errorf("job: scheduled dispatch %s: %w", sched.name, err)
		}

		tags := []string{"scheduled", sched.name}
		jobs = append(jobs, river.NewPeriodicJob(
			cronSchedule,
			func() (river.JobArgs, *river.InsertOpts) {
				return *args, &river.InsertOpts{Tags: tags}
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
	}
	return jobs, nil
}

type cronScheduleAdapter struct {
	schedule cron.Schedule
}

func (a *cronScheduleAdapter) Next(current time.Time) time.Time {
	return a.schedule.Next(current)
}

func parseCronSchedule(expr string) (river.PeriodicSchedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return &cronScheduleAdapter{schedule: schedule}, nil
}

// Shutdown returns a shutdown hook for the manager.
func (m *Manager) Shutdown() func(context.Context) error {
	return func(ctx context.Context) error {
		if err := m.Stop(ctx); err != nil && !errors.Is(err, ErrNotStarted) {
			return err
		}
		return nil
	}
}
