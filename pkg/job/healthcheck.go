package job

import (
	"context"
	"errors"
)

// ErrHealthcheckFailed is returned when the job manager health check fails.
var ErrHealthcheckFailed = errors.New("job: healthcheck failed")

var (
	errManagerNil        = errors.New("manager is nil")
	errManagerNotStarted = errors.New("manager not started")
)

// Healthcheck returns a check that the manager is started and its database
// pool answers.
func Healthcheck(m *Manager) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if m == nil {
			return errors.Join(ErrHealthcheckFailed, errManagerNil)
		}

		m.mu.Lock()
		started := m.started
		m.mu.Unlock()

		if !started {
			return errors.Join(ErrHealthcheckFailed, errManagerNotStarted)
		}
		if err := m.pool.Ping(ctx); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
